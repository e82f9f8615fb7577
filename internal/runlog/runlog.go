// Package runlog writes the blackboard's append-only run log file,
// grounded on the original's RunLogMgr class (original_source/src/
// RunLogMgr.cpp) and Blackboard.cpp's CreateLogFileName.
package runlog

import (
	"fmt"
	"os"
	"time"
)

// defaultLogFileName is used as the log file's root when the caller
// supplies an empty root, matching the original's
// versionMTBMPI.ProductNameShort() + "_Log".
const defaultLogFileName = "taskframe_Log"

// nowFunc is overridden in tests for a deterministic file name.
var nowFunc = time.Now

// BuildFileName constructs the timestamped run log file name for root,
// following the original's CreateLogFileName: "<root>.<date>.<time>.txt"
// with '/' and ':' in the date/time components replaced by '-'. An empty
// root falls back to defaultLogFileName.
func BuildFileName(root string) string {
	if root == "" {
		root = defaultLogFileName
	}
	ts := nowFunc()
	return fmt.Sprintf("%s.%s.txt", root, ts.Format("2006-01-02.15-04-05"))
}

// RunLog is an append-only, truncate-on-open file writer. It is not safe
// for concurrent use; the blackboard role is its only writer.
type RunLog struct {
	fileName string
	f        *os.File
}

// Open truncates (or creates) the run log file at fileName. It matches the
// original's constructor, which throws if the file cannot be opened for
// writing.
func Open(fileName string) (*RunLog, error) {
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", fileName, err)
	}
	return &RunLog{fileName: fileName, f: f}, nil
}

// FileName returns the path this RunLog was opened against.
func (r *RunLog) FileName() string {
	return r.fileName
}

// IsOpen reports whether the underlying file handle is still open.
func (r *RunLog) IsOpen() bool {
	return r.f != nil
}

// Write appends one line to the log, adding the trailing newline itself.
// It is a no-op once Close has been called.
func (r *RunLog) Write(line string) error {
	if !r.IsOpen() {
		return nil
	}
	if _, err := fmt.Fprintln(r.f, line); err != nil {
		return fmt.Errorf("runlog: write: %w", err)
	}
	return nil
}

// Close closes the underlying file. Safe to call more than once.
func (r *RunLog) Close() error {
	if !r.IsOpen() {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
