// Package mcp exposes hub inventory and port switching as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/mcp-go"
)

// VersionInfo contains version metadata for the MCP server.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// ListInput is the input for the hubctl_list tool.
type ListInput struct {
	Hub string `json:"hub,omitempty" jsonschema:"description=Only report this hub path (e.g. 1-1.4)"`
}

// ListOutput is the output for the hubctl_list tool.
type ListOutput struct {
	Hubs      []app.HubReport `json:"hubs"`
	HubCount  int             `json:"hub_count"`
	PortCount int             `json:"port_count"`
	Powered   int             `json:"powered"`
}

// PortStatusInput is the input for the hubctl_port_status tool.
type PortStatusInput struct {
	Port string `json:"port" jsonschema:"required,description=Port as HUB.PORT (e.g. 1-2.3)"`
}

// PortStatusOutput is the output for the hubctl_port_status tool.
type PortStatusOutput struct {
	Port  app.PortReport `json:"port"`
	State string         `json:"state"`
}

// SetPowerInput is the input for the hubctl_set_power tool.
type SetPowerInput struct {
	Port    string `json:"port" jsonschema:"required,description=Port as HUB.PORT (e.g. 1-2.3)"`
	State   string `json:"state" jsonschema:"required,enum=on,enum=off,enum=cycle,description=Power action"`
	Delay   string `json:"delay,omitempty" jsonschema:"description=Off time for cycle as a duration (e.g. 2s)"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to switch the port (safety confirmation)"`
}

// SetPowerOutput is the output for the hubctl_set_power tool.
type SetPowerOutput struct {
	Applied bool            `json:"applied"`
	Action  string          `json:"action"`
	Message string          `json:"message,omitempty"`
	Port    *app.PortReport `json:"port,omitempty"`
}

// StatusInput is the input for the hubctl_status tool.
type StatusInput struct{}

// StatusOutput is the output for the hubctl_status tool.
type StatusOutput struct {
	Version         string `json:"version"`
	Commit          string `json:"commit,omitempty"`
	BuildDate       string `json:"build_date,omitempty"`
	Binary          string `json:"binary"`
	UhubctlVersion  string `json:"uhubctl_version"`
	NoDescSupported bool   `json:"nodesc_supported"`
}

// RegisterAll registers all MCP tools with the server.
func RegisterAll(srv *mcp.Server, svc *app.Service, versionInfo VersionInfo) {
	registerListTool(srv, svc)
	registerPortStatusTool(srv, svc)
	registerSetPowerTool(srv, svc)
	registerStatusTool(srv, svc, versionInfo)
}

func registerListTool(srv *mcp.Server, svc *app.Service) {
	srv.Tool("hubctl_list").
		Description("List USB hubs that support per-port power switching, with the power state and attached device of every port.").
		ReadOnly().
		Handler(func(ctx context.Context, in ListInput) (*ListOutput, error) {
			if err := ValidateListInput(&in); err != nil {
				return nil, err
			}

			hubs, err := svc.Inventory(ctx)
			if err != nil {
				return nil, err
			}

			out := &ListOutput{Hubs: make([]app.HubReport, 0, len(hubs))}
			for _, hub := range hubs {
				if in.Hub != "" && hub.Path != in.Hub {
					continue
				}
				out.Hubs = append(out.Hubs, hub)
				out.PortCount += len(hub.Ports)
				for _, p := range hub.Ports {
					if p.Powered {
						out.Powered++
					}
				}
			}
			out.HubCount = len(out.Hubs)
			return out, nil
		})
}

func registerPortStatusTool(srv *mcp.Server, svc *app.Service) {
	srv.Tool("hubctl_port_status").
		Description("Read the power state and attached device of one hub port.").
		ReadOnly().
		Handler(func(ctx context.Context, in PortStatusInput) (*PortStatusOutput, error) {
			if err := ValidatePortStatusInput(&in); err != nil {
				return nil, err
			}

			report, err := svc.PortStatus(ctx, in.Port)
			if err != nil {
				return nil, err
			}
			return &PortStatusOutput{Port: report, State: report.State()}, nil
		})
}

func registerSetPowerTool(srv *mcp.Server, svc *app.Service) {
	srv.Tool("hubctl_set_power").
		Description("Switch a hub port on, off, or power-cycle it. REQUIRES confirm=true for safety.").
		Destructive().
		Handler(func(ctx context.Context, in SetPowerInput) (*SetPowerOutput, error) {
			action, delay, err := ValidateSetPowerInput(&in)
			if err != nil {
				return nil, err
			}

			if !in.Confirm {
				return &SetPowerOutput{
					Action:  string(action),
					Message: fmt.Sprintf("not applied: set confirm=true to %s port %s", action, in.Port),
				}, nil
			}

			report, err := svc.Apply(ctx, in.Port, action, delay)
			if err != nil {
				return nil, err
			}
			return &SetPowerOutput{
				Applied: true,
				Action:  string(action),
				Message: fmt.Sprintf("port %s is %s", report.Target, report.State()),
				Port:    &report,
			}, nil
		})
}

func registerStatusTool(srv *mcp.Server, svc *app.Service, versionInfo VersionInfo) {
	srv.Tool("hubctl_status").
		Description("Report the hubctl build and the detected uhubctl version.").
		ReadOnly().
		Handler(func(ctx context.Context, _ StatusInput) (*StatusOutput, error) {
			v, err := svc.Version(ctx)
			if err != nil {
				return nil, err
			}
			return &StatusOutput{
				Version:         versionInfo.Version,
				Commit:          versionInfo.Commit,
				BuildDate:       versionInfo.BuildDate,
				Binary:          svc.Binary(),
				UhubctlVersion:  v.String(),
				NoDescSupported: v.SupportsNoDesc(),
			}, nil
		})
}

// parseDelay accepts a Go duration or a bare number of seconds.
func parseDelay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = time.ParseDuration(s + "s")
	}
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative: %s", s)
	}
	return d, nil
}
