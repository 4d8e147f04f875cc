package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/felixgeelhaar/hubctl/internal/config"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/testutil/mocks"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes hubctl with args against runner. The user's config file
// and HUBCTL_* variables are hidden.
func runCLI(t *testing.T, runner *mocks.CommandRunner, args ...string) cliResult {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{config.EnvBinary, config.EnvTimeout, config.EnvNoDesc, config.EnvLogLevel, config.EnvLogFormat} {
		t.Setenv(k, "")
	}

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	oldRunner, oldLog := newRunner, logOutput
	t.Cleanup(func() { newRunner, logOutput = oldRunner, oldLog })
	newRunner = func(ports.Logger) ports.CommandRunner { return runner }

	var stdout, stderr bytes.Buffer
	logOutput = &stderr
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
