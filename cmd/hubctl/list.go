package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List hubs and the power state of their ports",
	Long: `List every USB hub that uhubctl can switch, with the power state
and attached device of each port.

Examples:
  hubctl list
  hubctl list --json
  hubctl list --nodesc never   # include device descriptions`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	hubs, err := rt.svc.Inventory(cmd.Context())
	if err != nil {
		return userError(err, "", rt.cfg.Binary)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hubs)
	}

	if len(hubs) == 0 {
		_, _ = fmt.Fprintln(out, "No hubs with per-port power switching found.")
		return nil
	}
	printHubs(out, hubs)
	return nil
}

func printHubs(out io.Writer, hubs []app.HubReport) {
	for i, hub := range hubs {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintln(out, hubHeading(hub))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "PORT\tPOWER\tSTATUS\tDEVICE")
		for _, p := range hub.Ports {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Target, p.State(), p.Status, deviceText(p))
		}
		_ = w.Flush()
	}
}

func hubHeading(hub app.HubReport) string {
	s := "Hub " + hub.Path
	if hub.VendorID != "" {
		s += fmt.Sprintf(" [%s:%s]", hub.VendorID, hub.ProductID)
	}
	if hub.Description != "" {
		s += " " + hub.Description
	}
	if hub.USBVersion != "" {
		s += fmt.Sprintf(", USB %s", hub.USBVersion)
	}
	s += fmt.Sprintf(", %d ports", hub.PortCount)
	if hub.PowerSwitching != "" {
		s += ", " + hub.PowerSwitching
	}
	return s
}

func deviceText(p app.PortReport) string {
	if p.Device == nil {
		return "-"
	}
	return p.Device.String()
}
