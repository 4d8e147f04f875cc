package main

import (
	mcptools "github.com/felixgeelhaar/hubctl/internal/mcp"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server that lets AI agents read
and switch hub ports.

Available tools:
  - hubctl_list         List hubs and port states
  - hubctl_port_status  Read one port
  - hubctl_set_power    Switch a port on, off or cycle it (needs confirm=true)
  - hubctl_status       Report hubctl and uhubctl versions

Examples:
  hubctl mcp                 # Start stdio MCP server
  hubctl mcp --http :8080    # Start HTTP MCP server`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

var mcpHTTP string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "Start HTTP server on address (e.g., :8080)")
}

func newMCPServer(rt *runtime) *mcp.Server {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "hubctl",
		Version: version,
	})
	mcptools.RegisterAll(srv, rt.svc, mcptools.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})
	return srv
}

func runMCP(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := newMCPServer(rt)
	ctx := cmd.Context()

	if mcpHTTP != "" {
		rt.logger.Info(ctx, "serving MCP over HTTP", ports.F("addr", mcpHTTP))
		return mcp.ServeHTTP(ctx, srv, mcpHTTP)
	}
	return mcp.ServeStdio(ctx, srv)
}
