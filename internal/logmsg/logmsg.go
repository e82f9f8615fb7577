// Package logmsg formats the framework's log lines. It is deliberately
// free of any transport dependency — internal/logger sends the strings
// this package produces — so that the exact text of every log line can be
// tested without a Redis instance, mirroring how the original's
// LogMessage class is a plain formatter separate from LoggerMPI's send
// logic (original_source/src/LogMessage.cpp / LoggerMPI.cpp).
package logmsg

import (
	"fmt"
	"time"
)

const (
	warningPrefix = "Warning: "
	errorPrefix   = "ERROR: "
)

// nowFunc is overridden in tests to produce a deterministic timestamp.
var nowFunc = time.Now

const dateTimeLayout = "2006-01-02 15:04:05"

// dateTimeStamp returns the current date-time stamp prefix, matching
// DateTimeStampPrefix()'s "<timestamp>: " shape.
func dateTimeStamp() string {
	return nowFunc().Format(dateTimeLayout) + ": "
}

// formatTaskID renders a tracker slot's display ID into the
// "Tracker ID <n>: " prefix used on every worker-scoped log line.
func formatTaskID(taskID string) string {
	return fmt.Sprintf("Tracker ID %s: ", taskID)
}

// makePrefix combines the date-time stamp with a task-ID prefix.
func makePrefix(taskID string) string {
	return dateTimeStamp() + formatTaskID(taskID)
}

// Message formats an untagged informational line: just the stamp.
func Message(msg string) string {
	return dateTimeStamp() + msg
}

// MessageFor formats an informational line scoped to a tracker ID.
func MessageFor(taskID, msg string) string {
	return makePrefix(taskID) + msg
}

// Warning formats an untagged warning line: stamp, then the warning
// prefix, then the message.
func Warning(msg string) string {
	return dateTimeStamp() + warningPrefix + msg
}

// WarningFor formats a warning line scoped to a tracker ID.
func WarningFor(taskID, msg string) string {
	return makePrefix(taskID) + warningPrefix + msg
}

// Error formats an untagged error line: stamp, then the error prefix, then
// the message.
func Error(msg string) string {
	return dateTimeStamp() + errorPrefix + msg
}

// ErrorFor formats an error line scoped to a tracker ID.
func ErrorFor(taskID, msg string) string {
	return makePrefix(taskID) + errorPrefix + msg
}
