// Package command provides the os/exec backed ports.CommandRunner.
package command

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/adapters/logging"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/google/uuid"
)

// RealRunner executes actual commands.
type RealRunner struct {
	logger ports.Logger
	env    []string
}

// Option configures a RealRunner.
type Option func(*RealRunner)

// WithLogger sets the logger used for invocation tracing.
func WithLogger(logger ports.Logger) Option {
	return func(r *RealRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(kv ...string) Option {
	return func(r *RealRunner) {
		r.env = append(r.env, kv...)
	}
}

// NewRealRunner creates a new RealRunner. Output parsing depends on the
// untranslated messages, so children run with LC_ALL=C unless overridden.
func NewRealRunner(opts ...Option) *RealRunner {
	r := &RealRunner{
		logger: logging.NewNopLogger(),
		env:    []string{"LC_ALL=C"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	log := r.logger.With(ports.F("invocation", uuid.NewString()))
	call := ports.CommandCall{Command: command, Args: args}
	log.Debug(ctx, "exec", ports.F("cmd", call.String()))

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), r.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debug(ctx, "exec interrupted", ports.F("error", ctxErr))
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.Debug(ctx, "exec done",
				ports.F("exit", result.ExitCode),
				ports.F("took", time.Since(start)))
			return result, nil
		}
		log.Debug(ctx, "exec failed", ports.F("error", err))
		return result, err
	}

	log.Debug(ctx, "exec done", ports.F("exit", 0), ports.F("took", time.Since(start)))
	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
