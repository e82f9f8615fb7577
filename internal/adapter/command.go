package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/ratchet-sh/taskframe/internal/tracker"
)

// CommandInput is the JSON object written to the command's stdin before
// the pipe is closed, mirroring the contract the cub package
// uses to hand work to an agent tool (internal/cub/contract.go's
// ToolInput): one JSON object in, describing the work; one JSON object
// out, describing the result.
type CommandInput struct {
	Args []string `json:"args"`
}

// CommandOutput is the JSON object the command must write to stdout
// before exiting.
type CommandOutput struct {
	Summary string `json:"summary"`
	Payload string `json:"payload,omitempty"`
}

// Validate mirrors ToolOutput.Validate's required-field check.
func (o *CommandOutput) Validate() error {
	if o.Summary == "" {
		return fmt.Errorf("summary is required and cannot be empty")
	}
	return nil
}

// CommandAdapter drives a single external command as a task. Initialize
// records the work item; Start launches the command and blocks until it
// exits, parsing its stdout as a CommandOutput; Stop kills a still-running
// process. os/exec is the standard library's own subprocess primitive; no
// third-party dependency substitutes for it, so this is the one adapter
// implementation that reaches past the wired dependency set rather than
// around it.
type CommandAdapter struct {
	Name string
	Path string

	item   WorkItem
	cmd    *exec.Cmd
	cancel context.CancelFunc
	result CommandOutput
}

// NewCommandAdapter builds an adapter that runs path as its task command.
func NewCommandAdapter(name, path string) *CommandAdapter {
	return &CommandAdapter{Name: name, Path: path}
}

// Result returns the most recently parsed CommandOutput, valid once Start
// has returned COMPLETED.
func (a *CommandAdapter) Result() CommandOutput {
	return a.result
}

func (a *CommandAdapter) Initialize(ctx context.Context, item WorkItem) (tracker.TaskState, error) {
	a.item = item
	return tracker.StateInitialized, nil
}

func (a *CommandAdapter) Start(ctx context.Context) (tracker.TaskState, error) {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	input, err := json.Marshal(CommandInput{Args: a.item.Args})
	if err != nil {
		cancel()
		return tracker.StateError, fmt.Errorf("command adapter %s: marshal input: %w", a.Name, err)
	}

	cmd := exec.CommandContext(runCtx, a.Path, a.item.Args...)
	cmd.Dir = a.item.Dir
	cmd.Stdin = bytes.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	a.cmd = cmd

	if err := cmd.Run(); err != nil {
		return tracker.StateError, fmt.Errorf("command adapter %s: %w: %s", a.Name, err, stderr.String())
	}

	var out CommandOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return tracker.StateError, fmt.Errorf("command adapter %s: parse output: %w", a.Name, err)
	}
	if err := out.Validate(); err != nil {
		return tracker.StateError, fmt.Errorf("command adapter %s: invalid output: %w", a.Name, err)
	}
	a.result = out
	return tracker.StateCompleted, nil
}

func (a *CommandAdapter) Stop(ctx context.Context) (tracker.TaskState, error) {
	if a.cancel != nil {
		a.cancel()
	}
	return tracker.StateTerminated, nil
}

func (a *CommandAdapter) Pause(ctx context.Context) (tracker.TaskState, error) {
	return tracker.StatePaused, nil
}

func (a *CommandAdapter) Resume(ctx context.Context) (tracker.TaskState, error) {
	return tracker.StateRunning, nil
}
