package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type applyCall struct {
	target string
	action app.Action
}

// fakeService keeps port state in memory.
type fakeService struct {
	mu       sync.Mutex
	hubs     []app.HubReport
	calls    []applyCall
	errApply error
	errList  error
	// linked ports switch together, like both halves of a USB3 dual hub.
	linked map[string]string
}

func newFakeService() *fakeService {
	return &fakeService{
		hubs: []app.HubReport{
			{
				Path: "1-1", VendorID: "0424", ProductID: "9512", PortCount: 2,
				Ports: []app.PortReport{
					{Target: "1-1.1", Hub: "1-1", Port: 1, Powered: true, Device: &uhubctl.Device{VendorID: "046d", ProductID: "c52b", Description: "Logitech USB Receiver"}},
					{Target: "1-1.2", Hub: "1-1", Port: 2, Powered: false},
				},
			},
			{
				Path: "2-1", PortCount: 1,
				Ports: []app.PortReport{
					{Target: "2-1.1", Hub: "2-1", Port: 1, Powered: true},
				},
			},
		},
	}
}

func (f *fakeService) Inventory(context.Context) ([]app.HubReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errList != nil {
		return nil, f.errList
	}
	out := make([]app.HubReport, len(f.hubs))
	for i, h := range f.hubs {
		out[i] = h
		out[i].Ports = append([]app.PortReport(nil), h.Ports...)
	}
	return out, nil
}

func (f *fakeService) Apply(_ context.Context, target string, action app.Action, _ time.Duration) (app.PortReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, applyCall{target, action})
	if f.errApply != nil {
		return app.PortReport{}, f.errApply
	}
	if companion, ok := f.linked[target]; ok {
		f.setLocked(companion, action)
	}
	if p := f.setLocked(target, action); p != nil {
		return *p, nil
	}
	return app.PortReport{}, errors.New("no such port")
}

func (f *fakeService) setLocked(target string, action app.Action) *app.PortReport {
	for i := range f.hubs {
		for j := range f.hubs[i].Ports {
			p := &f.hubs[i].Ports[j]
			if p.Target == target {
				p.Powered = action != app.ActionOff
				return p
			}
		}
	}
	return nil
}

// drain runs cmd and returns every message it produces except spinner
// ticks, flattening batches.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	case spinner.TickMsg, nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

// step feeds msg to m and then feeds back every message the returned
// command produces.
func step(t *testing.T, m portsModel, msg tea.Msg) portsModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(portsModel)
	for _, out := range drain(cmd) {
		if _, quit := out.(tea.QuitMsg); quit {
			continue
		}
		m = step(t, m, out)
	}
	return m
}

func loaded(t *testing.T, svc PortService) portsModel {
	t.Helper()
	m, err := newPortsModel(context.Background(), svc)
	require.NoError(t, err)
	for _, msg := range drain(m.Init()) {
		m = step(t, m, msg)
	}
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestPortsModel_Init(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeService())

	assert.Equal(t, stateReady, m.screen.current())
	require.Len(t, m.rows, 3)
	assert.Equal(t, "1-1.1", m.rows[0].report.Target)
	assert.Equal(t, "2-1.1", m.rows[2].report.Target)
	assert.Equal(t, "2-1", m.rows[2].hub.Path)
}

func TestPortsModel_Navigation(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeService())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	m = step(t, m, runeKey('j'))
	m = step(t, m, runeKey('j'))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last port")

	m = step(t, m, runeKey('k'))
	assert.Equal(t, 1, m.cursor)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)

	m = step(t, m, runeKey('G'))
	assert.Equal(t, 2, m.cursor)
	m = step(t, m, runeKey('g'))
	assert.Equal(t, 0, m.cursor)
}

func TestPortsModel_Toggle(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	m := loaded(t, svc)

	m = step(t, m, runeKey(' '))
	assert.False(t, m.rows[0].report.Powered)
	assert.Contains(t, m.message, "1-1.1: off done")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, runeKey(' '))
	assert.True(t, m.rows[1].report.Powered)

	assert.Equal(t, []applyCall{
		{"1-1.1", app.ActionOff},
		{"1-1.2", app.ActionOn},
	}, svc.calls)
}

func TestPortsModel_Cycle(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	m := loaded(t, svc)

	m = step(t, m, runeKey('c'))
	assert.Equal(t, []applyCall{{"1-1.1", app.ActionCycle}}, svc.calls)
	assert.True(t, m.rows[0].report.Powered)
	assert.False(t, m.screen.busy())
}

func TestPortsModel_SwitchReloadsCompanion(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	svc.linked = map[string]string{"1-1.1": "2-1.1"}
	m := loaded(t, svc)

	m = step(t, m, runeKey(' '))
	assert.Equal(t, stateReady, m.screen.current())
	assert.False(t, m.rows[0].report.Powered)
	assert.False(t, m.rows[2].report.Powered, "companion row is reloaded")
	assert.Contains(t, m.message, "1-1.1: off done")
}

func TestPortsModel_IgnoresActionsWhileBusy(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	m := loaded(t, svc)

	next, cmd := m.Update(runeKey('c'))
	require.NotNil(t, cmd)
	assert.Equal(t, stateSwitching, next.(portsModel).screen.current())

	_, cmd = next.Update(runeKey('c'))
	assert.Nil(t, cmd, "second action is ignored while the first runs")
	_, cmd = next.Update(runeKey('r'))
	assert.Nil(t, cmd)
	assert.Empty(t, svc.calls, "commands have not been run yet")
}

func TestPortsModel_Refresh(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	m := loaded(t, svc)

	svc.mu.Lock()
	svc.hubs = svc.hubs[:1]
	svc.mu.Unlock()

	m.cursor = 2
	m = step(t, m, runeKey('r'))
	assert.Len(t, m.rows, 2)
	assert.Equal(t, 1, m.cursor, "cursor is clamped to the new list")
}

func TestPortsModel_Errors(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	svc.errList = errors.New("uhubctl failed (exit 1): permission denied")
	m := loaded(t, svc)
	require.Error(t, m.err)
	assert.Equal(t, stateFailed, m.screen.current())
	assert.Contains(t, m.View(), "permission denied")

	svc.errList = nil
	m = step(t, m, runeKey('r'))
	assert.NoError(t, m.err)

	svc.errApply = errors.New("boom")
	m = step(t, m, runeKey('c'))
	assert.EqualError(t, m.err, "boom")
	assert.Equal(t, stateFailed, m.screen.current())
	assert.Empty(t, m.message)
}

func TestScreenMachine(t *testing.T) {
	t.Parallel()

	s, err := newScreenMachine()
	require.NoError(t, err)
	assert.Equal(t, stateLoading, s.current())
	assert.True(t, s.busy())

	s.send(eventSwitch)
	assert.Equal(t, stateLoading, s.current(), "no switching while loading")

	s.send(eventLoaded)
	assert.Equal(t, stateReady, s.current())
	assert.False(t, s.busy())

	s.send(eventSwitch)
	assert.Equal(t, stateSwitching, s.current())
	s.send(eventDone)
	assert.Equal(t, stateLoading, s.current(), "a finished switch reloads")
	s.send(eventLoaded)

	s.send(eventSwitch)
	assert.Equal(t, stateSwitching, s.current())
	s.send(eventFail)
	assert.Equal(t, stateFailed, s.current())
	s.send(eventRefresh)
	assert.Equal(t, stateLoading, s.current())
}

func TestPortsModel_Quit(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeService())

	next, cmd := m.Update(runeKey('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(portsModel).done)
	assert.Empty(t, next.(portsModel).View())
}

func TestPortsModel_View(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeService())
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Contains(t, view, "USB hub ports")
	assert.Contains(t, view, "Hub 1-1 [0424:9512]")
	assert.Contains(t, view, "Hub 2-1")
	assert.Contains(t, view, "046d:c52b Logitech USB Receiver")
	assert.Contains(t, view, "> Port 1")
	assert.Equal(t, 120, m.width)
}

func TestPortsModel_View_Empty(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	svc.hubs = nil
	m := loaded(t, svc)

	assert.Contains(t, m.View(), "No hubs with per-port power switching found.")
}
