package blackboardrole

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratchet-sh/taskframe/internal/logger"
	"github.com/ratchet-sh/taskframe/internal/runlog"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

func newHarness(t *testing.T) (bbTransport, ctlTransport *transport.RedisTransport, log *runlog.RunLog, logPath string) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bbTransport = transport.NewRedisTransport(rdb, "job1", transport.Blackboard, 3)
	ctlTransport = transport.NewRedisTransport(rdb, "job1", transport.Controller, 3)

	dir := t.TempDir()
	logPath = filepath.Join(dir, "run.txt")
	var err error
	log, err = runlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return
}

func TestBlackboard_LogMessageIsAppended(t *testing.T) {
	bb, ctl, rl, logPath := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagLogMessage, []byte("hello world")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))

	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	cancel()
	<-done

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "hello world")
	assert.Contains(t, string(contents), "Blackboard stopped.")
}

func TestBlackboard_ErrorMessageGetsPrefixedOnce(t *testing.T) {
	bb, ctl, rl, logPath := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagErrorMessage, []byte("boom")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagErrorMessage, []byte("ERROR: already prefixed")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))
	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	cancel()
	<-done

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "ERROR: boom")
	assert.NotContains(t, string(contents), "ERROR: ERROR: already prefixed")
	assert.Contains(t, string(contents), "ERROR: already prefixed")
}

// TestBlackboard_RealLoggerErrorLineIsNotDoublePrefixed drives an actual
// logger.ErrorFor call (the only real producer of ERROR_MESSAGE bodies)
// through Blackboard.Activate and checks the line that lands in the run
// log matches "<timestamp>: Tracker ID 5: ERROR: boom" exactly, with no
// blackboard-added prefix stacked on top of logmsg's own "ERROR: " marker.
func TestBlackboard_RealLoggerErrorLineIsNotDoublePrefixed(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bb := transport.NewRedisTransport(rdb, "job1", transport.Blackboard, 3)
	ctl := transport.NewRedisTransport(rdb, "job1", transport.Controller, 3)
	workerTransport := transport.NewRedisTransport(rdb, "job1", transport.FirstWorker, 3)
	lg := logger.New(workerTransport)

	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.txt")
	rl, err := runlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { rl.Close() })

	ctx, cancel := context.WithCancel(context.Background())

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	lg.ErrorFor(ctx, "5", "boom")

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))
	_, err = ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	cancel()
	<-done

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var line string
	for _, l := range strings.Split(string(contents), "\n") {
		if strings.Contains(l, "boom") {
			line = l
			break
		}
	}
	require.NotEmpty(t, line, "expected a log line containing boom")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}: Tracker ID 5: ERROR: boom$`, line)
}

type recordingOutput struct {
	lines []string
}

func (r *recordingOutput) HandleTaskResults(ctx context.Context, source transport.Rank, body []byte) error {
	r.lines = append(r.lines, string(body))
	return nil
}

func TestBlackboard_DelegatesTaskResultsToOutputManager(t *testing.T) {
	bb, ctl, rl, _ := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	out := &recordingOutput{}
	board := New(bb, rl, out)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagTaskResults, []byte("result-payload")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))
	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	cancel()
	<-done

	require.Len(t, out.lines, 1)
	assert.Equal(t, "result-payload", out.lines[0])
}

func TestBlackboard_TaskResultsDiscardedWithoutOutputManager(t *testing.T) {
	bb, ctl, rl, _ := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagTaskResults, []byte("ignored")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))
	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	cancel()
	<-done
}

// TestBlackboard_StopBlackboardSendsExactlyOneConfirmation checks that
// TagStopBlackboard is answered with exactly one TagConfirmation: a second
// probe on the controller's inbox after draining the first confirmation
// must find nothing, whether or not other traffic preceded the stop.
func TestBlackboard_StopBlackboardSendsExactlyOneConfirmation(t *testing.T) {
	bb, ctl, rl, _ := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagLogMessage, []byte("noise")))
	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil))

	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	require.NoError(t, <-done)

	probeCtx, probeCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer probeCancel()
	_, ok, err := ctl.TryProbe(probeCtx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	assert.False(t, ok, "a second TagConfirmation arrived after the first was drained")
}

// TestBlackboard_ProbeFailureWritesNoLogLine checks that a Probe/Recv error
// (here, the context expiring mid-wait) returns without ever calling
// RunLog.Write: no log line traces back to a receive that didn't complete.
func TestBlackboard_ProbeFailureWritesNoLogLine(t *testing.T) {
	bb, _, rl, logPath := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	board := New(bb, rl, nil)
	err := board.Activate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	contents, readErr := os.ReadFile(logPath)
	require.NoError(t, readErr)
	assert.Empty(t, string(contents))
}

func TestBlackboard_StopsOnRequestStopTask(t *testing.T) {
	bb, ctl, rl, _ := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	board := New(bb, rl, nil)
	done := make(chan error, 1)
	go func() { done <- board.Activate(ctx) }()

	require.NoError(t, ctl.Send(ctx, transport.Blackboard, transport.TagRequestStopTask, nil))
	_, err := ctl.Recv(ctx, transport.Blackboard, transport.TagConfirmation)
	require.NoError(t, err)
	require.NoError(t, <-done)
}
