package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status HUB.PORT",
	Short: "Show whether a port is powered",
	Long: `Show the power state of one port.

Examples:
  hubctl status 1-1.2
  hubctl status 1-1.4.3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.svc.PortStatus(cmd.Context(), args[0])
	if err != nil {
		return userError(err, args[0], rt.cfg.Binary)
	}
	return printPort(cmd.OutOrStdout(), report, statusJSON)
}

func printPort(out io.Writer, r app.PortReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	line := fmt.Sprintf("%s: %s", r.Target, r.State())
	if len(r.Flags) > 0 {
		line += fmt.Sprintf(" (%s %s)", r.Status, strings.Join(r.Flags, " "))
	}
	if r.Device != nil {
		line += " [" + r.Device.String() + "]"
	}
	_, err := fmt.Fprintln(out, line)
	return err
}

func fieldErr(err error) ports.Field {
	return ports.F("error", err)
}
