// Package logger sends formatted log lines to the blackboard, grounded on
// the original's LoggerMPI class (original_source/src/LoggerMPI.cpp):
// Message and Warning both travel under TagLogMessage, Error travels under
// TagErrorMessage, and every line is formatted by internal/logmsg before
// it goes on the wire.
package logger

import (
	"context"
	"log"

	"github.com/ratchet-sh/taskframe/internal/logmsg"
	"github.com/ratchet-sh/taskframe/pkg/transport"
)

// Logger sends formatted log lines from any rank to the blackboard.
type Logger struct {
	t transport.Transport
}

// New binds a Logger to t. Every call sends to transport.Blackboard.
func New(t transport.Transport) *Logger {
	return &Logger{t: t}
}

func (l *Logger) send(ctx context.Context, tag transport.MsgTag, text string) {
	if err := l.t.Send(ctx, transport.Blackboard, tag, []byte(text)); err != nil {
		// The blackboard is unreachable; fall back to the process's own
		// stderr so the line isn't lost outright, matching established
		// practice of log.Printf as the last-resort diagnostic channel.
		log.Printf("[%s] logger: send to blackboard failed: %v (dropped line: %s)", l.t.ProcessName(), err, text)
	}
}

// Message sends an untagged informational line.
func (l *Logger) Message(ctx context.Context, msg string) {
	l.send(ctx, transport.TagLogMessage, logmsg.Message(msg))
}

// MessageFor sends an informational line scoped to a tracker ID.
func (l *Logger) MessageFor(ctx context.Context, taskID, msg string) {
	l.send(ctx, transport.TagLogMessage, logmsg.MessageFor(taskID, msg))
}

// Warning sends an untagged warning line.
func (l *Logger) Warning(ctx context.Context, msg string) {
	l.send(ctx, transport.TagLogMessage, logmsg.Warning(msg))
}

// WarningFor sends a warning line scoped to a tracker ID.
func (l *Logger) WarningFor(ctx context.Context, taskID, msg string) {
	l.send(ctx, transport.TagLogMessage, logmsg.WarningFor(taskID, msg))
}

// Error sends an untagged error line.
func (l *Logger) Error(ctx context.Context, msg string) {
	l.send(ctx, transport.TagErrorMessage, logmsg.Error(msg))
}

// ErrorFor sends an error line scoped to a tracker ID.
func (l *Logger) ErrorFor(ctx context.Context, taskID, msg string) {
	l.send(ctx, transport.TagErrorMessage, logmsg.ErrorFor(taskID, msg))
}
