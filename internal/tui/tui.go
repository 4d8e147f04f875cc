// Package tui provides the interactive port control screen.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// PortControlOptions configures the port control TUI.
type PortControlOptions struct {
	AltScreen bool
}

// RunPortControl shows every hub port and lets the user switch them until
// they quit.
func RunPortControl(ctx context.Context, svc PortService, opts PortControlOptions) error {
	model, err := newPortsModel(ctx, svc)
	if err != nil {
		return err
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(model, progOpts...)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("port control failed: %w", err)
	}

	m, ok := finalModel.(portsModel)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	return m.err
}
