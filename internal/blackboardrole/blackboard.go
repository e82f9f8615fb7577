// Package blackboardrole implements the blackboard's receive loop,
// grounded on original_source/src/Blackboard.cpp.
package blackboardrole

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ratchet-sh/taskframe/internal/logmsg"
	"github.com/ratchet-sh/taskframe/internal/outputmgr"
	"github.com/ratchet-sh/taskframe/internal/runlog"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// errorAlreadyPrefix is the prefix receiveAndLogError checks for before
// adding its own, matching logmsg's errorPrefix so a line that already
// went through logmsg.Error/ErrorFor isn't prefixed twice.
const errorAlreadyPrefix = "ERROR: "

// Blackboard runs the job's central receive loop: every LOG_MESSAGE and
// ERROR_MESSAGE line lands in its RunLog, every TASK_RESULTS payload goes
// to its OutputManager (if any), and it shuts itself down on the
// controller's say-so.
type Blackboard struct {
	t      transport.Transport
	log    *runlog.RunLog
	output outputmgr.OutputManager
}

// New builds a Blackboard bound to t, writing to runLog and delegating
// TASK_RESULTS to output (which may be nil).
func New(t transport.Transport, runLog *runlog.RunLog, output outputmgr.OutputManager) *Blackboard {
	return &Blackboard{t: t, log: runLog, output: output}
}

// Activate runs the receive loop until a stop tag arrives from the
// controller.
func (b *Blackboard) Activate(ctx context.Context) error {
	for {
		env, err := b.t.Probe(ctx, transport.AnyRank, transport.AnyTag)
		if err != nil {
			return fmt.Errorf("blackboard: probe: %w", err)
		}

		switch env.Tag {
		case transport.TagTaskResults:
			if err := b.handleTaskResults(ctx, env.Source); err != nil {
				log.Printf("[blackboard] task results from %s: %v", env.Source, err)
			}
		case transport.TagLogMessage:
			if err := b.receiveAndLog(ctx, env.Source); err != nil {
				return err
			}
		case transport.TagErrorMessage:
			if err := b.receiveAndLogError(ctx, env.Source); err != nil {
				return err
			}
		case transport.TagStopBlackboard, transport.TagRequestStop, transport.TagRequestStopTask:
			return b.stop(ctx, env.Source, env.Tag)
		default:
			// Reserved for future extension; drain and drop silently.
			if _, err := b.t.Recv(ctx, env.Source, env.Tag); err != nil {
				return fmt.Errorf("blackboard: drain unknown tag %s: %w", env.Tag, err)
			}
		}
	}
}

func (b *Blackboard) handleTaskResults(ctx context.Context, source transport.Rank) error {
	env, err := b.t.Recv(ctx, source, transport.TagTaskResults)
	if err != nil {
		return fmt.Errorf("recv task results: %w", err)
	}
	if b.output == nil {
		return nil
	}
	return b.output.HandleTaskResults(ctx, source, env.Body)
}

func (b *Blackboard) receiveAndLog(ctx context.Context, source transport.Rank) error {
	env, err := b.t.Recv(ctx, source, transport.TagLogMessage)
	if err != nil {
		return fmt.Errorf("blackboard: recv log message: %w", err)
	}
	return b.log.Write(string(env.Body))
}

func (b *Blackboard) receiveAndLogError(ctx context.Context, source transport.Rank) error {
	env, err := b.t.Recv(ctx, source, transport.TagErrorMessage)
	if err != nil {
		return fmt.Errorf("blackboard: recv error message: %w", err)
	}
	text := string(env.Body)
	if !strings.Contains(text, errorAlreadyPrefix) {
		text = errorAlreadyPrefix + text
	}
	return b.log.Write(text)
}

func (b *Blackboard) stop(ctx context.Context, source transport.Rank, tag transport.MsgTag) error {
	if _, err := b.t.Recv(ctx, source, tag); err != nil {
		return fmt.Errorf("blackboard: drain stop request: %w", err)
	}

	if err := b.log.Write(logmsg.Message("Blackboard stopped.")); err != nil {
		return fmt.Errorf("blackboard: write stop line: %w", err)
	}

	return b.t.Send(ctx, transport.Controller, transport.TagConfirmation, nil)
}
