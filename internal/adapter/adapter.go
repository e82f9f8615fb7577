// Package adapter defines the application contract a worker drives, and
// two concrete implementations: CommandAdapter, which runs an external
// command the way the cub package drives subprocess
// applications (internal/cub/contract.go's ToolInput/ToolOutput JSON
// contract), and FuncAdapter, an in-process adapter for tests.
package adapter

import (
	"context"

	"github.com/ratchet-sh/taskframe/internal/tracker"
)

// WorkItem is the argument vector a worker hands its adapter, copied from
// the controller's configuration: adapters receive their command-line
// argument vector from the framework rather than reading it themselves.
type WorkItem struct {
	Args []string
	Dir  string
}

// TaskAdapter is the five-operation contract every worker drives. Each
// operation returns the state the worker should report next.
type TaskAdapter interface {
	Initialize(ctx context.Context, item WorkItem) (tracker.TaskState, error)
	Start(ctx context.Context) (tracker.TaskState, error)
	Stop(ctx context.Context) (tracker.TaskState, error)
	Pause(ctx context.Context) (tracker.TaskState, error)
	Resume(ctx context.Context) (tracker.TaskState, error)
}
