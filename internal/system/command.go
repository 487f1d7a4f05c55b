// Package system runs toolkit command lines as child processes.
//
// Command lines are composed as single strings (stage arguments are parsed
// positionally by Key=Value downstream), so they are handed to the shell
// unchanged, the way the toolkit's System primitive does.
package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor defines an interface for executing a built command.
// This abstraction enables unit testing without real process spawning.
type CommandExecutor interface {
	// Run starts the command and waits for it to finish.
	Run() error
}

// CommandBuilder defines an interface for building shell commands.
type CommandBuilder interface {
	// BuildShellCommand creates a CommandExecutor running line via sh -c.
	BuildShellCommand(ctx context.Context, line string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Run executes the command.
func (r *RealCommandExecutor) Run() error {
	return r.cmd.Run()
}

// RealCommandBuilder implements CommandBuilder using exec.CommandContext.
// Children inherit the parent environment and stdin; their output goes to
// Stdout and Stderr.
type RealCommandBuilder struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewRealCommandBuilder creates a RealCommandBuilder wired to the process stdio.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{Stdout: os.Stdout, Stderr: os.Stderr}
}

// BuildShellCommand creates a CommandExecutor for shell commands.
func (b *RealCommandBuilder) BuildShellCommand(ctx context.Context, line string) CommandExecutor {
	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Stdin = os.Stdin
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	return &RealCommandExecutor{cmd: cmd}
}

// ExitError reports a child that did not complete successfully.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed with status %d: %v", e.Command, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// System runs line synchronously and returns only after the child exits.
// A child that cannot be started, is killed, or exits non-zero yields an
// *ExitError carrying the status to propagate.
func System(ctx context.Context, b CommandBuilder, line string) error {
	err := b.BuildShellCommand(ctx, line).Run()
	if err == nil {
		return nil
	}

	code := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		code = exitErr.ExitCode()
	}
	return &ExitError{Command: line, Code: code, Err: err}
}

// ExitCode maps an error to a process exit status: 0 for nil, the child's
// status for an *ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Quote wraps s in double quotes.
func Quote(s string) string {
	return `"` + s + `"`
}

// BinFile renders the toolkit binary path for a command line, quoting it
// only when it contains whitespace.
func BinFile(bin string) string {
	if strings.ContainsAny(bin, " \t") {
		return Quote(bin)
	}
	return bin
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	// Err is the error to return from Run.
	Err error
	// RunCalled indicates whether Run was called.
	RunCalled bool
}

// Run returns the configured error.
func (m *MockCommandExecutor) Run() error {
	m.RunCalled = true
	return m.Err
}

// MockCommandBuilder implements CommandBuilder for testing.
type MockCommandBuilder struct {
	// Commands records every command line that was built, in order.
	Commands []string
	// ExecutorFactory allows creating executors dynamically based on the command line.
	ExecutorFactory func(line string) *MockCommandExecutor
}

// NewMockCommandBuilder creates a new MockCommandBuilder.
func NewMockCommandBuilder() *MockCommandBuilder {
	return &MockCommandBuilder{}
}

// BuildShellCommand records the line and returns a mock executor.
func (b *MockCommandBuilder) BuildShellCommand(_ context.Context, line string) CommandExecutor {
	b.Commands = append(b.Commands, line)
	if b.ExecutorFactory != nil {
		return b.ExecutorFactory(line)
	}
	return &MockCommandExecutor{}
}

// LastCommand returns the most recently built command line, or "" if none.
func (b *MockCommandBuilder) LastCommand() string {
	if len(b.Commands) == 0 {
		return ""
	}
	return b.Commands[len(b.Commands)-1]
}

// Reset clears all recorded commands.
func (b *MockCommandBuilder) Reset() {
	b.Commands = nil
}
