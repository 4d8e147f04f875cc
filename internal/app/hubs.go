// Package app exposes hub inventory and port switching as one service
// shared by the CLI, the MCP server and the TUI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/adapters/logging"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
)

// Action is a power action on a port.
type Action string

// Power actions.
const (
	ActionOn    Action = "on"
	ActionOff   Action = "off"
	ActionCycle Action = "cycle"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionOn, ActionOff, ActionCycle:
		return a, nil
	default:
		return "", fmt.Errorf("unknown power action %q (want on, off or cycle)", s)
	}
}

// Service reads and switches hub ports through a uhubctl client.
type Service struct {
	client *uhubctl.Client
	logger ports.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(client *uhubctl.Client, logger ports.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{client: client, logger: logger}
}

// Binary returns the configured uhubctl command line.
func (s *Service) Binary() string {
	return s.client.Binary()
}

// Version returns the detected uhubctl version.
func (s *Service) Version(ctx context.Context) (uhubctl.Version, error) {
	return s.client.Version(ctx)
}

// Inventory lists every switchable hub with the current state of each port.
func (s *Service) Inventory(ctx context.Context) ([]HubReport, error) {
	statuses, err := s.client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing hubs: %w", err)
	}

	reports := make([]HubReport, 0, len(statuses))
	for _, st := range statuses {
		reports = append(reports, newHubReport(st))
	}

	s.logger.Debug(ctx, "inventory", ports.F("hubs", len(reports)))
	return reports, nil
}

// PortStatus reads one port named as HUB.PORT.
func (s *Service) PortStatus(ctx context.Context, target string) (PortReport, error) {
	port, err := s.client.PortFromPath(target)
	if err != nil {
		return PortReport{}, err
	}
	return s.read(ctx, port)
}

// SetPower switches a port on or off and returns its new state.
func (s *Service) SetPower(ctx context.Context, target string, on bool) (PortReport, error) {
	if on {
		return s.Apply(ctx, target, ActionOn, 0)
	}
	return s.Apply(ctx, target, ActionOff, 0)
}

// Cycle switches a port off and back on. A zero delay uses uhubctl's
// default off time.
func (s *Service) Cycle(ctx context.Context, target string, delay time.Duration) (PortReport, error) {
	return s.Apply(ctx, target, ActionCycle, delay)
}

// Apply runs action on target, then re-reads the port. delay only applies
// to ActionCycle.
func (s *Service) Apply(ctx context.Context, target string, action Action, delay time.Duration) (PortReport, error) {
	port, err := s.client.PortFromPath(target)
	if err != nil {
		return PortReport{}, err
	}

	switch action {
	case ActionOn:
		err = port.SetStatus(ctx, true)
	case ActionOff:
		err = port.SetStatus(ctx, false)
	case ActionCycle:
		err = port.Cycle(ctx, delay)
	default:
		return PortReport{}, fmt.Errorf("unknown power action %q", action)
	}
	if err != nil {
		return PortReport{}, fmt.Errorf("%s %s: %w", action, target, err)
	}

	return s.read(ctx, port)
}

func (s *Service) read(ctx context.Context, port *uhubctl.Port) (PortReport, error) {
	info, err := port.Info(ctx)
	if err != nil {
		return PortReport{}, fmt.Errorf("reading %s: %w", port.Path(), err)
	}
	return newPortReport(port.Hub().Path(), info), nil
}
