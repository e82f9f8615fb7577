// Package masterproc is the framework's entry point — grounded on
// original_source/src/Master.cpp — that brings the transport up,
// validates the process count, and dispatches to the role that matches
// this process's rank.
package masterproc

import (
	"context"
	"fmt"
	"io"

	"github.com/ratchet-sh/taskframe/internal/adapter"
	"github.com/ratchet-sh/taskframe/internal/blackboardrole"
	"github.com/ratchet-sh/taskframe/internal/config"
	"github.com/ratchet-sh/taskframe/internal/controller"
	"github.com/ratchet-sh/taskframe/internal/outputmgr"
	"github.com/ratchet-sh/taskframe/internal/runlog"
	"github.com/ratchet-sh/taskframe/internal/tracker"
	"github.com/ratchet-sh/taskframe/internal/worker"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// Options configures one process's run through the framework.
type Options struct {
	Transport transport.Transport
	Manifest  *config.Manifest

	// Hooks fire on rank 0 only, at the controller's lifecycle points.
	Hooks controller.Hooks

	// BeforeAnyTask / AfterAnyTask run on every rank except the
	// blackboard, immediately after transport init and immediately
	// before transport finalize.
	BeforeAnyTask func(ctx context.Context) error
	AfterAnyTask  func(ctx context.Context) error

	// Output is the blackboard's optional OutputManager.
	Output outputmgr.OutputManager

	// Adapter builds the TaskAdapter a worker rank drives. Required for
	// rank >= FirstWorker; ignored otherwise.
	Adapter func() adapter.TaskAdapter

	// Diagnostics receives the "too few processes" message when Size is
	// below the manifest's MinProcesses, mirroring the original's Master
	// writing that diagnostic to its msgStream rather than throwing.
	Diagnostics io.Writer
}

// Run brings the transport up, validates the process count, dispatches to
// this rank's role, and tears the transport down on the way out —
// mirroring Master's constructor/destructor pair collapsed into one call
// since Go has no destructor to hang Finalize off of.
func Run(ctx context.Context, opts Options) error {
	t := opts.Transport

	if err := t.Init(ctx); err != nil {
		return fmt.Errorf("masterproc: transport init: %w", err)
	}
	defer t.Finalize(ctx)

	if t.Size() < opts.Manifest.MinProcesses {
		if opts.Diagnostics != nil {
			fmt.Fprintf(opts.Diagnostics, "requested %d processes, minimum is %d\n", t.Size(), opts.Manifest.MinProcesses)
		}
		return nil
	}

	if t.Rank() != transport.Blackboard && opts.BeforeAnyTask != nil {
		if err := opts.BeforeAnyTask(ctx); err != nil {
			return fmt.Errorf("masterproc: before-any-task hook: %w", err)
		}
	}
	if t.Rank() != transport.Blackboard && opts.AfterAnyTask != nil {
		defer opts.AfterAnyTask(ctx)
	}

	switch {
	case t.Rank() == transport.Controller:
		return runController(ctx, t, opts)
	case t.Rank() == transport.Blackboard:
		return runBlackboard(ctx, t, opts)
	default:
		return runWorker(ctx, t, opts)
	}
}

func runController(ctx context.Context, t transport.Transport, opts Options) error {
	cfg := config.NewConfiguration(opts.Manifest)
	tr := tracker.New(t.Size() - int(transport.FirstWorker))
	ctl := controller.New(t, tr, cfg, opts.Hooks)
	return ctl.Activate(ctx)
}

func runBlackboard(ctx context.Context, t transport.Transport, opts Options) error {
	fileName := runlog.BuildFileName(opts.Manifest.RunLogRoot)
	rl, err := runlog.Open(fileName)
	if err != nil {
		return fmt.Errorf("masterproc: open run log: %w", err)
	}
	defer rl.Close()

	board := blackboardrole.New(t, rl, opts.Output)
	return board.Activate(ctx)
}

func runWorker(ctx context.Context, t transport.Transport, opts Options) error {
	if opts.Adapter == nil {
		return fmt.Errorf("masterproc: worker rank %s requires an Adapter factory", t.Rank())
	}
	w := worker.New(t, opts.Adapter())
	item := adapter.WorkItem{Args: config.NewConfiguration(opts.Manifest).Args}
	return w.Activate(ctx, item)
}
