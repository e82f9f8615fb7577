// Package controller implements the controller's event loop, grounded on
// original_source/src/Controller.cpp.
package controller

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/ratchet-sh/taskframe/internal/config"
	"github.com/ratchet-sh/taskframe/internal/logger"
	"github.com/ratchet-sh/taskframe/internal/tracker"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// blackboardState mirrors the original's cached state for the blackboard
// process, tracked so StopBlackboard is idempotent.
type blackboardState int

const (
	blackboardRunning blackboardState = iota
	blackboardCompleted
)

// Hooks are the derived-Master extension points fired at the controller's
// lifecycle transitions. Every field is optional; a nil hook is a no-op.
type Hooks struct {
	BeforeTasksCreated func(ctx context.Context)
	AtInitTasks        func(ctx context.Context)
	BeforeTasksStart   func(ctx context.Context)
	WhileActive        func(ctx context.Context)
	AfterTasks         func(ctx context.Context)
}

// Controller runs the job's control-plane loop: it brings workers up
// through CREATED → INITIALIZED → RUNNING, waits for them all to stop,
// then shuts the blackboard down.
type Controller struct {
	t       transport.Transport
	tracker *tracker.Tracker
	cfg     *config.Configuration
	logger  *logger.Logger
	hooks   Hooks

	tasksCreated     bool
	tasksInitialized bool
	tasksStarted     bool
	bbState          blackboardState
	timer            transport.Timer

	firstTurn bool
}

// New builds a Controller for the workers tracked by tr.
func New(t transport.Transport, tr *tracker.Tracker, cfg *config.Configuration, hooks Hooks) *Controller {
	return &Controller{
		t:         t,
		tracker:   tr,
		cfg:       cfg,
		logger:    logger.New(t),
		hooks:     hooks,
		bbState:   blackboardRunning,
		timer:     t.Timer(),
		firstTurn: true,
	}
}

// Activate runs the controller loop until every worker and the blackboard
// have stopped. It is not re-entrant.
func (c *Controller) Activate(ctx context.Context) error {
	for {
		c.tasksCreated = c.tracker.AreAllCreated()
		c.tasksInitialized = c.tracker.AreAllInitialized()

		if c.firstTurn {
			c.logCmdLineArgs(ctx)
			c.fire(ctx, c.hooks.BeforeTasksCreated)
			c.firstTurn = false
		}

		if c.tasksCreated && !c.tasksInitialized {
			if err := c.initializeAllTasks(ctx); err != nil {
				return err
			}
		}

		if c.tasksInitialized && !c.tasksStarted {
			if err := c.startAllTasks(ctx); err != nil {
				return err
			}
		}

		if c.tasksStarted {
			c.fire(ctx, c.hooks.WhileActive)
		}

		if err := c.handleOneMessage(ctx); err != nil {
			return err
		}

		if c.tracker.AreAllStopped() {
			c.fire(ctx, c.hooks.AfterTasks)
			c.timer.Stop()
			c.logger.Message(ctx, fmt.Sprintf("Controller: all tasks are stopped. Elapsed time: %s", c.timer.Elapsed()))
			return c.stopBlackboard(ctx)
		}
	}
}

func (c *Controller) fire(ctx context.Context, hook func(ctx context.Context)) {
	if hook != nil {
		hook(ctx)
	}
}

// logCmdLineArgs logs the job's configured arguments on the controller's
// first turn, matching Controller.cpp's LogCmdLineArgs.
func (c *Controller) logCmdLineArgs(ctx context.Context) {
	if len(c.cfg.Args) == 0 {
		c.logger.Message(ctx, "Command-line arguments: none")
		return
	}
	c.logger.Message(ctx, "Command-line arguments: "+strings.Join(c.cfg.Args, "\n"))
}

func (c *Controller) initializeAllTasks(ctx context.Context) error {
	c.fire(ctx, c.hooks.AtInitTasks)
	c.timer.Start()

	var reqs []transport.SendRequest
	for slot := 0; slot < c.tracker.Size(); slot++ {
		req, err := c.t.ISend(ctx, transport.RankForSlot(slot), transport.TagInitializeTask, nil)
		if err != nil {
			return fmt.Errorf("controller: isend init to slot %d: %w", slot, err)
		}
		reqs = append(reqs, req)
	}
	c.logSendErrors(ctx, transport.TagInitializeTask, c.t.WaitAll(ctx, reqs))
	return nil
}

func (c *Controller) startAllTasks(ctx context.Context) error {
	c.fire(ctx, c.hooks.BeforeTasksStart)

	var reqs []transport.SendRequest
	for slot := 0; slot < c.tracker.Size(); slot++ {
		req, err := c.t.ISend(ctx, transport.RankForSlot(slot), transport.TagStartTask, nil)
		if err != nil {
			return fmt.Errorf("controller: isend start to slot %d: %w", slot, err)
		}
		reqs = append(reqs, req)
	}
	c.logSendErrors(ctx, transport.TagStartTask, c.t.WaitAll(ctx, reqs))
	c.tasksStarted = true
	return nil
}

// logSendErrors logs, but does not abort on, a failed broadcast send: the
// goal is to reach a clean teardown even in degraded runs.
func (c *Controller) logSendErrors(ctx context.Context, tag transport.MsgTag, errs []error) {
	for i, err := range errs {
		if err != nil {
			c.logger.Error(ctx, fmt.Sprintf("send of %s to slot %d failed: %v", tag, i, err))
		}
	}
}

func (c *Controller) handleOneMessage(ctx context.Context) error {
	env, err := c.t.Probe(ctx, transport.AnyRank, transport.AnyTag)
	if err != nil {
		return fmt.Errorf("controller: probe: %w", err)
	}

	switch env.Tag {
	case transport.TagState:
		return c.doActionState(ctx, env.Source)
	case transport.TagRequestStop:
		return c.doActionRequestStop(ctx, env.Source)
	case transport.TagRequestCmdLineArgs:
		return c.doActionRequestCmdLineArgs(ctx, env.Source)
	case transport.TagRequestConfig:
		// Reserved for future use; drain and reply with nothing.
		_, err := c.t.Recv(ctx, env.Source, transport.TagRequestConfig)
		return err
	default:
		if _, err := c.t.Recv(ctx, env.Source, env.Tag); err != nil {
			return err
		}
		c.logger.Warning(ctx, fmt.Sprintf("Controller: ignoring unexpected tag %s from %s", env.Tag, env.Source))
		return nil
	}
}

func (c *Controller) doActionState(ctx context.Context, source transport.Rank) error {
	env, err := c.t.Recv(ctx, source, transport.TagState)
	if err != nil {
		return fmt.Errorf("controller: recv state: %w", err)
	}
	if len(env.Body) < 8 {
		return nil
	}
	rank := transport.Rank(binary.BigEndian.Uint32(env.Body[0:4]))
	state := tracker.DecodeState(binary.BigEndian.Uint32(env.Body[4:8]))
	if rank >= transport.FirstWorker {
		c.tracker.SetState(transport.WorkerSlot(rank), state)
	}
	return nil
}

func (c *Controller) doActionRequestStop(ctx context.Context, source transport.Rank) error {
	c.logger.Message(ctx, "Controller: received stop request.")
	if _, err := c.t.Recv(ctx, source, transport.TagRequestStop); err != nil {
		return fmt.Errorf("controller: recv request stop: %w", err)
	}
	if err := c.stopAllTasks(ctx); err != nil {
		return err
	}
	return c.stopBlackboard(ctx)
}

// stopAllTasks sends REQUEST_STOP_TASK to every worker not already
// stopped, then keeps handling incoming messages (updating the Tracker as
// workers report terminal states) until AreAllStopped() holds — matching
// the original's StopAllTasks, which blocks on exactly that condition.
func (c *Controller) stopAllTasks(ctx context.Context) error {
	c.logger.Message(ctx, "Controller stopping all tasks.")
	for slot := 0; slot < c.tracker.Size(); slot++ {
		if c.tracker.State(slot).IsStopped() {
			continue
		}
		if err := c.t.Send(ctx, transport.RankForSlot(slot), transport.TagRequestStopTask, nil); err != nil {
			c.logger.Error(ctx, fmt.Sprintf("failed to send REQUEST_STOP_TASK to slot %d: %v", slot, err))
		}
	}
	for !c.tracker.AreAllStopped() {
		if err := c.handleOneMessage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) doActionRequestCmdLineArgs(ctx context.Context, source transport.Rank) error {
	if _, err := c.t.Recv(ctx, source, transport.TagRequestCmdLineArgs); err != nil {
		return fmt.Errorf("controller: recv request cmdline args: %w", err)
	}
	joined := strings.Join(c.cfg.Args, "\n")
	return c.t.Send(ctx, source, transport.TagCmdLineArgs, []byte(joined))
}

// stopBlackboard sends STOP_BLACKBOARD and waits for CONFIRMATION, unless
// the blackboard has already been marked completed.
func (c *Controller) stopBlackboard(ctx context.Context) error {
	if c.bbState == blackboardCompleted {
		return nil
	}
	if err := c.t.Send(ctx, transport.Blackboard, transport.TagStopBlackboard, nil); err != nil {
		return fmt.Errorf("controller: send stop blackboard: %w", err)
	}
	if _, err := c.t.Recv(ctx, transport.Blackboard, transport.TagConfirmation); err != nil {
		return fmt.Errorf("controller: recv blackboard confirmation: %w", err)
	}
	c.bbState = blackboardCompleted
	time.Sleep(5 * time.Millisecond)
	return nil
}
