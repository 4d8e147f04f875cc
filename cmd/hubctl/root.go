package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/adapters/command"
	"github.com/felixgeelhaar/hubctl/internal/adapters/logging"
	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/config"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	binaryFlag  string
	timeoutFlag time.Duration
	nodescFlag  string
	verbose     bool
	logFormat   string
)

// newRunner builds the process runner. Tests replace it with a mock.
var newRunner = func(logger ports.Logger) ports.CommandRunner {
	return command.NewRealRunner(command.WithLogger(logger))
}

// logOutput is where diagnostics go.
var logOutput io.Writer = os.Stderr

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "Switch USB hub port power through uhubctl",
	Long: `hubctl lists USB hubs that support per-port power switching and turns
their ports on, off or power-cycles them by driving the uhubctl binary.

Ports are named HUB.PORT, for example 1-1.4.2 is port 2 of hub 1-1.4.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command and prints any error.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printErrorTo(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&binaryFlag, "binary", "", `uhubctl command line, e.g. "sudo uhubctl" (default: uhubctl)`)
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "timeout for each uhubctl call (default: 10s)")
	rootCmd.PersistentFlags().StringVar(&nodescFlag, "nodesc", "", "pass -N to uhubctl: auto, always or never (default: auto)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default: text)")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// runtime holds everything a command needs to talk to uhubctl.
type runtime struct {
	cfg    config.Config
	logger ports.Logger
	client *uhubctl.Client
	svc    *app.Service
}

// close flushes buffered logs.
func (r *runtime) close() {
	if z, ok := r.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}

// loadConfig merges defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("binary") {
		cfg.Binary = binaryFlag
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	if flags.Changed("nodesc") {
		cfg.NoDesc = nodescFlag
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) ports.Logger {
	level, _ := ports.ParseLevel(cfg.Log.Level)
	if cfg.Log.Format == config.LogFormatJSON {
		return logging.NewZapLogger(logOutput, level)
	}
	return logging.NewConsoleLogger(logging.WithOutput(logOutput), logging.WithLevel(level))
}

// newRuntime wires config, logging, the runner and the uhubctl client.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	mode, _ := uhubctl.ParseNoDescMode(cfg.NoDesc)

	client := uhubctl.New(newRunner(logger),
		uhubctl.WithBinary(cfg.Binary),
		uhubctl.WithTimeout(cfg.Timeout),
		uhubctl.WithNoDesc(mode),
		uhubctl.WithLogger(logger),
	)

	logger.Debug(cmd.Context(), "configured",
		ports.F("binary", cfg.Binary),
		ports.F("timeout", cfg.Timeout),
		ports.F("nodesc", cfg.NoDesc))

	return &runtime{
		cfg:    cfg,
		logger: logger,
		client: client,
		svc:    app.NewService(client, logger),
	}, nil
}

// userError turns well-known failures into errors with a suggestion.
func userError(err error, target string, binary string) error {
	var cmdErr *uhubctl.CommandError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, uhubctl.ErrBinaryNotFound):
		return config.NewBinaryNotFoundError(binary, err)
	case errors.As(err, &cmdErr) && cmdErr.PermissionDenied():
		return config.NewPermissionError(err)
	case errors.Is(err, uhubctl.ErrInvalidTarget),
		errors.Is(err, uhubctl.ErrInvalidPath),
		errors.Is(err, uhubctl.ErrInvalidPortNumber):
		return config.NewInvalidTargetError(target, err)
	}
	return err
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		if verbose {
			return list.Format()
		}
		return list.Error()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml", "ini", "conf"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("nodesc", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"auto\tUse -N when uhubctl is 2.5.0 or newer",
			"always\tAlways pass -N",
			"never\tNever pass -N",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
}
