// Package mocks provides test doubles for the ports package.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/hubctl/internal/ports"
)

// HandlerFunc computes a result at call time, so a fake can keep state
// between invocations (power a port off, then report it off).
type HandlerFunc func(ctx context.Context) (ports.CommandResult, error)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Commands are matched on the exact command and argument list.
type CommandRunner struct {
	mu       sync.Mutex
	results  map[string]ports.CommandResult
	errors   map[string]error
	handlers map[string]HandlerFunc
	calls    []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:  make(map[string]ports.CommandResult),
		errors:   make(map[string]error),
		handlers: make(map[string]HandlerFunc),
	}
}

// AddResult registers a fixed result for a command.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers a command that fails to run.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// AddHandler registers a command whose result is computed on each call.
// Handlers take precedence over fixed results.
func (m *CommandRunner) AddHandler(command string, args []string, fn HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[buildKey(command, args)] = fn
}

// Run executes a mock command.
func (m *CommandRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	key := buildKey(command, args)

	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
	})
	err, hasErr := m.errors[key]
	handler, hasHandler := m.handlers[key]
	result, hasResult := m.results[key]
	m.mu.Unlock()

	switch {
	case hasErr:
		return ports.CommandResult{}, err
	case hasHandler:
		return handler(ctx)
	case hasResult:
		return result, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times a command with exactly these args ran.
func (m *CommandRunner) CallCount(command string, args ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(command, args)
	n := 0
	for _, c := range m.calls {
		if buildKey(c.Command, c.Args) == key {
			n++
		}
	}
	return n
}

// Reset clears all registered results, errors, handlers and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.handlers = make(map[string]HandlerFunc)
	m.calls = nil
}

func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

var _ ports.CommandRunner = (*CommandRunner)(nil)
