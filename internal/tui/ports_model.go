package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/tui/ui"
)

// PortService is what the port control screen needs from the app layer.
type PortService interface {
	Inventory(ctx context.Context) ([]app.HubReport, error)
	Apply(ctx context.Context, target string, action app.Action, delay time.Duration) (app.PortReport, error)
}

// inventoryMsg carries the result of a refresh.
type inventoryMsg struct {
	hubs []app.HubReport
	err  error
}

// switchedMsg carries the result of a power action.
type switchedMsg struct {
	target string
	action app.Action
	report app.PortReport
	err    error
}

type portRow struct {
	hub    *app.HubReport
	report app.PortReport
}

// portsModel is the Bubble Tea model for the port control screen.
type portsModel struct {
	ctx     context.Context
	svc     PortService
	keys    ui.KeyMap
	styles  ui.Styles
	help    help.Model
	spinner spinner.Model

	screen *screenMachine
	hubs   []app.HubReport
	rows   []portRow
	cursor int

	message string
	err     error
	width   int
	height  int
	done    bool
}

func newPortsModel(ctx context.Context, svc PortService) (portsModel, error) {
	screen, err := newScreenMachine()
	if err != nil {
		return portsModel{}, err
	}
	styles := ui.DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return portsModel{
		ctx:     ctx,
		svc:     svc,
		keys:    ui.DefaultKeyMap(),
		styles:  styles,
		help:    help.New(),
		spinner: sp,
		screen:  screen,
		width:   ui.DefaultWidth,
		height:  ui.DefaultHeight,
	}, nil
}

// Init starts the first inventory load.
func (m portsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m portsModel) load() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		hubs, err := svc.Inventory(ctx)
		return inventoryMsg{hubs: hubs, err: err}
	}
}

func (m portsModel) apply(target string, action app.Action) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		report, err := svc.Apply(ctx, target, action, 0)
		return switchedMsg{target: target, action: action, report: report, err: err}
	}
}

// Update handles messages.
func (m portsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.screen.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case inventoryMsg:
		if msg.err != nil {
			m.screen.send(eventFail)
			m.err = msg.err
			return m, nil
		}
		m.screen.send(eventLoaded)
		m.err = nil
		m.setHubs(msg.hubs)
		return m, nil

	case switchedMsg:
		if msg.err != nil {
			m.screen.send(eventFail)
			m.err = msg.err
			m.message = ""
			return m, nil
		}
		m.screen.send(eventDone)
		m.err = nil
		m.updateRow(msg.report)
		m.message = fmt.Sprintf("%s: %s done, port is %s", msg.target, msg.action, msg.report.State())
		return m, tea.Batch(m.spinner.Tick, m.load())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m portsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.done = true
		return m, tea.Quit

	case m.keys.IsUp(msg):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case m.keys.IsDown(msg):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.End):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.screen.busy() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.screen.send(eventRefresh)
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, m.load())

	case key.Matches(msg, m.keys.Toggle):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		action := app.ActionOn
		if row.report.Powered {
			action = app.ActionOff
		}
		m.screen.send(eventSwitch)
		return m, tea.Batch(m.spinner.Tick, m.apply(row.report.Target, action))

	case key.Matches(msg, m.keys.Cycle):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.screen.send(eventSwitch)
		return m, tea.Batch(m.spinner.Tick, m.apply(row.report.Target, app.ActionCycle))
	}

	return m, nil
}

func (m *portsModel) setHubs(hubs []app.HubReport) {
	m.hubs = hubs
	m.rows = make([]portRow, 0, len(m.rows))
	for i := range m.hubs {
		for _, p := range m.hubs[i].Ports {
			m.rows = append(m.rows, portRow{hub: &m.hubs[i], report: p})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *portsModel) updateRow(report app.PortReport) {
	for i := range m.rows {
		if m.rows[i].report.Target == report.Target {
			m.rows[i].report = report
			return
		}
	}
}

func (m portsModel) selected() (portRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return portRow{}, false
	}
	return m.rows[m.cursor], true
}

// View renders the model.
func (m portsModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("USB hub ports"))
	b.WriteString("\n")

	switch {
	case len(m.rows) == 0 && m.screen.busy():
		b.WriteString(m.spinner.View() + " Scanning hubs...\n")
	case len(m.rows) == 0 && m.err == nil:
		b.WriteString(m.styles.Warning.Render("No hubs with per-port power switching found."))
		b.WriteString("\n")
	}

	var lastHub *app.HubReport
	for i, row := range m.rows {
		if row.hub != lastHub {
			lastHub = row.hub
			b.WriteString("\n")
			b.WriteString(m.styles.Subtitle.Render(hubTitle(*row.hub)))
			b.WriteString("\n")
		}

		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		line := fmt.Sprintf("%sPort %-2d %s  %s", prefix, row.report.Port, m.styles.PowerState(row.report.Powered), deviceLabel(row.report))
		if i == m.cursor {
			line = m.styles.ListItemActive.Render(line)
		} else {
			line = m.styles.ListItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.screen.busy() && len(m.rows) > 0:
		b.WriteString(m.spinner.View() + " Working...\n")
	case m.message != "":
		b.WriteString(m.styles.Success.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return m.styles.App.Render(b.String())
}

func hubTitle(h app.HubReport) string {
	title := "Hub " + h.Path
	if h.VendorID != "" {
		title += fmt.Sprintf(" [%s:%s]", h.VendorID, h.ProductID)
	}
	if h.Description != "" {
		title += " " + h.Description
	}
	return title
}

func deviceLabel(r app.PortReport) string {
	if r.Device == nil {
		return "-"
	}
	return r.Device.String()
}
