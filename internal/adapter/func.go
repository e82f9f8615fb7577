package adapter

import (
	"context"

	"github.com/ratchet-sh/taskframe/internal/tracker"
)

// FuncAdapter is an in-process TaskAdapter whose five operations are
// plain function values, letting tests exercise the worker loop without
// spawning a subprocess.
type FuncAdapter struct {
	InitializeFunc func(ctx context.Context, item WorkItem) (tracker.TaskState, error)
	StartFunc      func(ctx context.Context) (tracker.TaskState, error)
	StopFunc       func(ctx context.Context) (tracker.TaskState, error)
	PauseFunc      func(ctx context.Context) (tracker.TaskState, error)
	ResumeFunc     func(ctx context.Context) (tracker.TaskState, error)
}

func (a *FuncAdapter) Initialize(ctx context.Context, item WorkItem) (tracker.TaskState, error) {
	if a.InitializeFunc == nil {
		return tracker.StateInitialized, nil
	}
	return a.InitializeFunc(ctx, item)
}

func (a *FuncAdapter) Start(ctx context.Context) (tracker.TaskState, error) {
	if a.StartFunc == nil {
		return tracker.StateCompleted, nil
	}
	return a.StartFunc(ctx)
}

func (a *FuncAdapter) Stop(ctx context.Context) (tracker.TaskState, error) {
	if a.StopFunc == nil {
		return tracker.StateTerminated, nil
	}
	return a.StopFunc(ctx)
}

func (a *FuncAdapter) Pause(ctx context.Context) (tracker.TaskState, error) {
	if a.PauseFunc == nil {
		return tracker.StatePaused, nil
	}
	return a.PauseFunc(ctx)
}

func (a *FuncAdapter) Resume(ctx context.Context) (tracker.TaskState, error) {
	if a.ResumeFunc == nil {
		return tracker.StateRunning, nil
	}
	return a.ResumeFunc(ctx)
}
