package controller

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratchet-sh/taskframe/internal/adapter"
	"github.com/ratchet-sh/taskframe/internal/blackboardrole"
	"github.com/ratchet-sh/taskframe/internal/config"
	"github.com/ratchet-sh/taskframe/internal/outputmgr"
	"github.com/ratchet-sh/taskframe/internal/runlog"
	"github.com/ratchet-sh/taskframe/internal/tracker"
	"github.com/ratchet-sh/taskframe/internal/worker"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// TestScenario_S1_SimpleJobNoOutputManager runs a 3-worker job whose
// adapters complete after a per-slot delay and checks the run log and
// elapsed-time reporting a fully converged job is expected to produce.
func TestScenario_S1_SimpleJobNoOutputManager(t *testing.T) {
	rdb, logPath := newJob(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rl, err := runlog.Open(logPath)
	require.NoError(t, err)
	defer rl.Close()

	bbT := transport.NewRedisTransport(rdb, "s1", transport.Blackboard, groupSize)
	board := blackboardrole.New(bbT, rl, nil)
	bbDone := make(chan error, 1)
	go func() { bbDone <- board.Activate(ctx) }()

	for slot := 0; slot < numWorkers; slot++ {
		delay := time.Duration(1e5*(slot+1)) * time.Microsecond
		wt := transport.NewRedisTransport(rdb, "s1", transport.RankForSlot(slot), groupSize)
		w := worker.New(wt, &adapter.FuncAdapter{
			StartFunc: func(ctx context.Context) (tracker.TaskState, error) {
				time.Sleep(delay)
				return tracker.StateCompleted, nil
			},
		})
		go w.Activate(ctx, adapter.WorkItem{})
	}

	ctlT := transport.NewRedisTransport(rdb, "s1", transport.Controller, groupSize)
	tr := tracker.New(numWorkers)
	ctl := New(ctlT, tr, &config.Configuration{}, Hooks{})

	start := time.Now()
	require.NoError(t, ctl.Activate(ctx))
	elapsed := time.Since(start)
	require.NoError(t, <-bbDone)

	assert.Greater(t, elapsed, 200*time.Millisecond)

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "Tracker ID 1: state = completed")
	assert.Contains(t, text, "Tracker ID 2: state = completed")
	assert.Equal(t, 1, strings.Count(text, "Blackboard stopped."))
}

// TestScenario_S2_OutputManagerReceivesResults checks that a worker's
// TASK_RESULTS payload reaches the blackboard's OutputManager once per
// worker, carrying that worker's own rank-parameterized text.
func TestScenario_S2_OutputManagerReceivesResults(t *testing.T) {
	rdb, logPath := newJob(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rl, err := runlog.Open(logPath)
	require.NoError(t, err)
	defer rl.Close()

	var mu sync.Mutex
	var received []string
	output := outputmgr.NewFileOutputManager(func(line string) error {
		mu.Lock()
		received = append(received, line)
		mu.Unlock()
		return nil
	})

	bbT := transport.NewRedisTransport(rdb, "s2", transport.Blackboard, groupSize)
	board := blackboardrole.New(bbT, rl, output)
	bbDone := make(chan error, 1)
	go func() { bbDone <- board.Activate(ctx) }()

	for slot := 0; slot < numWorkers; slot++ {
		id := slot + 1
		wt := transport.NewRedisTransport(rdb, "s2", transport.RankForSlot(slot), groupSize)
		w := worker.New(wt, &adapter.FuncAdapter{
			StartFunc: func(ctx context.Context) (tracker.TaskState, error) {
				payload := fmt.Sprintf("results: ratio * id = %.2f", 0.5*float64(id))
				if err := wt.Send(ctx, transport.Blackboard, transport.TagTaskResults, []byte(payload)); err != nil {
					return tracker.StateError, err
				}
				return tracker.StateCompleted, nil
			},
		})
		go w.Activate(ctx, adapter.WorkItem{})
	}

	ctlT := transport.NewRedisTransport(rdb, "s2", transport.Controller, groupSize)
	tr := tracker.New(numWorkers)
	ctl := New(ctlT, tr, &config.Configuration{}, Hooks{})

	require.NoError(t, ctl.Activate(ctx))
	require.NoError(t, <-bbDone)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, numWorkers)
	for _, line := range received {
		assert.Contains(t, line, "results: ratio * id =")
		assert.NotEmpty(t, line)
	}
}
