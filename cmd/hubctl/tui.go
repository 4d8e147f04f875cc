package main

import (
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/tui"
	"github.com/spf13/cobra"
)

var tuiAltScreen bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Switch ports interactively",
	Long: `Show every hub port in an interactive list.

Keys:
  ↑/k ↓/j   move
  space     toggle power
  c         power-cycle
  r         refresh
  q         quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().BoolVar(&tuiAltScreen, "alt-screen", true, "use the terminal's alternate screen")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	// Info lines on stderr would tear the screen.
	if !verbose && rt.logger.Level() < ports.LevelWarn {
		rt.logger.SetLevel(ports.LevelWarn)
	}

	err = tui.RunPortControl(cmd.Context(), rt.svc, tui.PortControlOptions{AltScreen: tuiAltScreen})
	return userError(err, "", rt.cfg.Binary)
}
