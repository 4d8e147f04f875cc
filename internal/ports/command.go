// Package ports defines the interfaces hubctl uses to reach the outside world.
package ports

import (
	"context"
	"strings"
)

// CommandResult is the captured outcome of one subprocess invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Lines splits stdout into lines. A trailing newline does not produce an
// empty final line.
func (r CommandResult) Lines() []string {
	out := strings.TrimSuffix(r.Stdout, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call the way a shell would show it.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external commands.
//
// A command that runs and exits non-zero is reported through
// CommandResult.ExitCode with a nil error. An error means the process could
// not be started or was interrupted.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}
