package main

import (
	"time"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/spf13/cobra"
)

var (
	powerJSON  bool
	cycleDelay time.Duration
)

var onCmd = &cobra.Command{
	Use:   "on HUB.PORT",
	Short: "Power a port on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, args[0], app.ActionOn, 0)
	},
}

var offCmd = &cobra.Command{
	Use:   "off HUB.PORT",
	Short: "Power a port off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, args[0], app.ActionOff, 0)
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle HUB.PORT",
	Short: "Power a port off and back on",
	Long: `Power-cycle a port. The port stays off for --delay, or for uhubctl's
default when --delay is not given.

Examples:
  hubctl cycle 1-1.2
  hubctl cycle 1-1.2 --delay 5s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, args[0], app.ActionCycle, cycleDelay)
	},
}

func init() {
	for _, c := range []*cobra.Command{onCmd, offCmd, cycleCmd} {
		c.Flags().BoolVar(&powerJSON, "json", false, "output the new port state as JSON")
		rootCmd.AddCommand(c)
	}
	cycleCmd.Flags().DurationVar(&cycleDelay, "delay", 0, "how long the port stays off (e.g. 2s)")
}

func runPower(cmd *cobra.Command, target string, action app.Action, delay time.Duration) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.svc.Apply(cmd.Context(), target, action, delay)
	if err != nil {
		return userError(err, target, rt.cfg.Binary)
	}
	return printPort(cmd.OutOrStdout(), report, powerJSON)
}
