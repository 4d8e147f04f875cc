package ui_test

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/hubctl/internal/tui/ui"
	"github.com/stretchr/testify/assert"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestDefaultKeyMap(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	assert.NotEmpty(t, km.Up.Keys())
	assert.NotEmpty(t, km.Down.Keys())
	assert.NotEmpty(t, km.Toggle.Keys())
	assert.NotEmpty(t, km.Cycle.Keys())
	assert.NotEmpty(t, km.Refresh.Keys())
	assert.NotEmpty(t, km.Quit.Keys())
}

func TestKeyMap_Navigation(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	tests := []struct {
		key      string
		wantUp   bool
		wantDown bool
	}{
		{"up", true, false},
		{"k", true, false},
		{"down", false, true},
		{"j", false, true},
		{"x", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantUp, km.IsUp(keyMsg(tt.key)))
			assert.Equal(t, tt.wantDown, km.IsDown(keyMsg(tt.key)))
		})
	}
}

func TestKeyMap_Actions(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	assert.True(t, key.Matches(keyMsg("space"), km.Toggle))
	assert.True(t, key.Matches(keyMsg("c"), km.Cycle))
	assert.True(t, key.Matches(keyMsg("r"), km.Refresh))
	assert.True(t, key.Matches(keyMsg("q"), km.Quit))
	assert.True(t, key.Matches(keyMsg("esc"), km.Quit))
	assert.False(t, key.Matches(keyMsg("c"), km.Toggle))
}

func TestKeyMap_Help(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 6)
	assert.Len(t, km.FullHelp(), 3)
}

func TestStyles_PowerState(t *testing.T) {
	t.Parallel()

	s := ui.DefaultStyles()
	assert.Contains(t, s.PowerState(true), "on")
	assert.Contains(t, s.PowerState(false), "off")
}
