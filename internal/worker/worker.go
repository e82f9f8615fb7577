// Package worker implements a task's receive loop, grounded on
// original_source/src/Task.cpp.
package worker

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ratchet-sh/taskframe/internal/adapter"
	"github.com/ratchet-sh/taskframe/internal/logger"
	"github.com/ratchet-sh/taskframe/internal/tracker"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// stopDrainPolls is the number of non-blocking polls Worker performs after
// Stop returns, discarding any messages the controller sent before it
// learned the worker had stopped. Matches Task.cpp's Activate loop.
const stopDrainPolls = 10

// stopDrainSleep is the pause between drain polls.
const stopDrainSleep = 5 * time.Millisecond

// Worker drives a single TaskAdapter through its lifecycle, publishing
// every state change to the controller.
type Worker struct {
	t       transport.Transport
	adapter adapter.TaskAdapter
	logger  *logger.Logger

	state tracker.TaskState
}

// New builds a Worker bound to t, driving a. The worker's display ID
// (used in log lines) is transport.WorkerSlot(t.Rank())+1, matching the
// original's 1-based Tracker ID.
func New(t transport.Transport, a adapter.TaskAdapter) *Worker {
	return &Worker{t: t, adapter: a, logger: logger.New(t)}
}

func (w *Worker) taskID() string {
	return fmt.Sprintf("%d", transport.WorkerSlot(w.t.Rank())+1)
}

// Activate constructs the adapter's initial state, publishes CREATED, then
// runs the receive loop until a terminal state is reached.
func (w *Worker) Activate(ctx context.Context, item adapter.WorkItem) error {
	w.setState(ctx, tracker.StateCreated)

	for !isTerminal(w.state) {
		env, err := w.t.Probe(ctx, transport.Controller, transport.AnyTag)
		if err != nil {
			return fmt.Errorf("worker: probe: %w", err)
		}

		next, publish, recvErr := w.dispatch(ctx, env.Tag, item)
		if recvErr != nil {
			w.logger.ErrorFor(ctx, w.taskID(), recvErr.Error())
			// A failed Stop still ends in the TERMINATED dispatch returned;
			// every other failure ends in ERROR.
			if next != tracker.StateTerminated {
				next = tracker.StateError
			}
			publish = true
		}
		if publish {
			w.setState(ctx, next)
			w.logState(ctx)
		}

		if env.Tag == transport.TagRequestStopTask || env.Tag == transport.TagRequestStop {
			w.drainAfterStop(ctx)
		}
	}
	return nil
}

// dispatch receives the message body appropriate to tag and runs the
// matching adapter operation, returning the worker's next state and
// whether that state must be published (STATE to the controller, a log
// line to the blackboard) even if it equals the state already held.
// Task.cpp's DoAction* methods call SetState/LogState unconditionally on
// every dispatch, not only on an actual change, so publish is true for
// every action tag and false only for TagData/unrecognized tags, which
// DoActionAcceptData and ProcessMessage's default case leave untouched.
func (w *Worker) dispatch(ctx context.Context, tag transport.MsgTag, item adapter.WorkItem) (next tracker.TaskState, publish bool, err error) {
	switch tag {
	case transport.TagInitializeTask:
		if _, err := w.t.Recv(ctx, transport.Controller, tag); err != nil {
			return w.state, false, err
		}
		next, err = w.adapter.Initialize(ctx, item)
		return next, true, err

	case transport.TagStartTask:
		if _, err := w.t.Recv(ctx, transport.Controller, tag); err != nil {
			return w.state, false, err
		}
		if w.state != tracker.StateInitialized {
			return tracker.StateError, true, fmt.Errorf("worker: START_TASK received in state %q, expected %q", w.state, tracker.StateInitialized)
		}
		next, err = w.adapter.Start(ctx)
		return next, true, err

	case transport.TagRequestStopTask, transport.TagRequestStop:
		if _, err := w.t.Recv(ctx, transport.Controller, tag); err != nil {
			return w.state, false, err
		}
		next, err = w.adapter.Stop(ctx)
		if err != nil {
			return tracker.StateTerminated, true, err
		}
		if !isTerminal(next) {
			next = tracker.StateTerminated
		}
		return next, true, nil

	case transport.TagRequestPauseTask:
		if err := w.recvTwoInts(ctx, tag); err != nil {
			return w.state, false, err
		}
		next, err = w.adapter.Pause(ctx)
		return next, true, err

	case transport.TagRequestResumeTask:
		if err := w.recvTwoInts(ctx, tag); err != nil {
			return w.state, false, err
		}
		next, err = w.adapter.Resume(ctx)
		return next, true, err

	case transport.TagData:
		// Reserved for adapter-specific data delivery; state unchanged.
		if _, err := w.t.Recv(ctx, transport.Controller, tag); err != nil {
			return w.state, false, err
		}
		return w.state, false, nil

	default:
		// Unknown tag: mark as received but discard, matching the intent
		// ProcessMessage's default case documents ("mark as received but
		// discard") rather than its literal body, which leaves the
		// matching Recv commented out — a message that's Probed but never
		// Recv'd would sit at the head of the inbox forever and wedge the
		// loop on every subsequent iteration.
		if _, err := w.t.Recv(ctx, transport.Controller, tag); err != nil {
			return w.state, false, err
		}
		return w.state, false, nil
	}
}

// recvTwoInts drains a PAUSE_TASK/RESUME_TASK body. Task.cpp receives this
// same message as a fixed two-int buffer it never reads back; the payload
// exists on the wire but carries no decoded value in either implementation,
// so this only needs to consume it off the inbox.
func (w *Worker) recvTwoInts(ctx context.Context, tag transport.MsgTag) error {
	_, err := w.t.Recv(ctx, transport.Controller, tag)
	return err
}

// setState records the new state locally and publishes it to the
// controller before the loop waits for the next command, matching
// Task.cpp's SetState/SendStateToController pairing.
func (w *Worker) setState(ctx context.Context, state tracker.TaskState) {
	w.state = state
	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], uint32(w.t.Rank()))
	binary.BigEndian.PutUint32(body[4:8], tracker.EncodeState(state))
	if err := w.t.Send(ctx, transport.Controller, transport.TagState, body); err != nil {
		w.logger.ErrorFor(ctx, w.taskID(), fmt.Sprintf("failed to publish state %s: %v", state, err))
	}
}

// logState writes "state = <state>" to the blackboard's run log, matching
// Task.cpp's LogState(), called after every Initialize/Start/Stop/Pause/
// Resume transition alongside the STATE message sent to the controller.
func (w *Worker) logState(ctx context.Context) {
	w.logger.MessageFor(ctx, w.taskID(), fmt.Sprintf("state = %s", w.state))
}

// drainAfterStop discards any messages the controller sent before
// learning this worker had stopped, so a leaked send can't jam transport
// teardown.
func (w *Worker) drainAfterStop(ctx context.Context) {
	for i := 0; i < stopDrainPolls; i++ {
		env, ok, err := w.t.TryProbe(ctx, transport.Controller, transport.AnyTag)
		if err != nil {
			return
		}
		if ok {
			w.t.Recv(ctx, transport.Controller, env.Tag)
			continue
		}
		time.Sleep(stopDrainSleep)
	}
}

func isTerminal(s tracker.TaskState) bool {
	switch s {
	case tracker.StateCompleted, tracker.StateTerminated, tracker.StateError:
		return true
	default:
		return false
	}
}
