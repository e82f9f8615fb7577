// Package outputmgr defines the optional sink for TASK_RESULTS messages,
// grounded on the OutputManager collaborator the original passes into its
// Blackboard constructor (original_source/src/Blackboard.cpp), following
// the small-interface-plus-one-concrete-sink shape internal/orchestrator/
// health.go uses for its HealthResponse / HTTP handler, adapted here to a
// result sink instead of a health check.
package outputmgr

import (
	"context"
	"fmt"

	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// OutputManager consumes a worker's TASK_RESULTS payload. The blackboard
// delegates to it when present; with none configured, TASK_RESULTS
// messages are received and discarded.
type OutputManager interface {
	HandleTaskResults(ctx context.Context, source transport.Rank, body []byte) error
}

// FileOutputManager forwards every TASK_RESULTS payload, prefixed with its
// source rank, through its write function. It is the simplest concrete
// OutputManager; cmd/taskframed does not wire up any OutputManager.
type FileOutputManager struct {
	write func(line string) error
}

// NewFileOutputManager builds an OutputManager that forwards each result
// line through write (typically a RunLog's Write).
func NewFileOutputManager(write func(line string) error) *FileOutputManager {
	return &FileOutputManager{write: write}
}

func (f *FileOutputManager) HandleTaskResults(ctx context.Context, source transport.Rank, body []byte) error {
	return f.write(fmt.Sprintf("[results from %s] %s", source, string(body)))
}
