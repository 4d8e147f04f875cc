package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Version information set by build flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Show the hubctl build and the version of the uhubctl binary it drives.",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	uhubctlVersion := "unavailable"
	nodesc := false

	rt, err := newRuntime(cmd)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", formatError(err))
	} else {
		defer rt.close()
		v, verr := rt.client.Version(cmd.Context())
		if verr == nil {
			uhubctlVersion = v.String()
			nodesc = v.SupportsNoDesc()
		} else {
			rt.logger.Debug(cmd.Context(), "uhubctl version lookup failed", fieldErr(verr))
		}
	}

	out := cmd.OutOrStdout()
	if versionJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"version":          version,
			"commit":           commit,
			"built":            buildDate,
			"uhubctl":          uhubctlVersion,
			"nodesc_supported": nodesc,
		})
	}

	_, _ = fmt.Fprintf(out, "hubctl %s\n", version)
	_, _ = fmt.Fprintf(out, "  commit:  %s\n", commit)
	_, _ = fmt.Fprintf(out, "  built:   %s\n", buildDate)
	_, _ = fmt.Fprintf(out, "  uhubctl: %s\n", uhubctlVersion)
	return nil
}
