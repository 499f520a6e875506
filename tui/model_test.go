package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oslo-surface/surface"
)

type fakeController struct {
	toggles int
	moves   []int
}

func (c *fakeController) TogglePlay()              { c.toggles++ }
func (c *fakeController) SelectRelative(delta int) { c.moves = append(c.moves, delta) }

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestKeysDriveController(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(ctrl, nil, nil, nil)

	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, key("h"))
	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key("left"))
	_, _ = update(t, m, key("x"))

	assert.Equal(t, 1, ctrl.toggles)
	assert.Equal(t, []int{-1, 1, -1}, ctrl.moves)
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(nil, nil, nil, nil)
	assert.NotContains(t, m.View(), "select previous track")

	m, _ = update(t, m, key("?"))
	assert.Contains(t, m.View(), "select previous track")

	m, _ = update(t, m, key("?"))
	assert.NotContains(t, m.View(), "select previous track")
}

func TestQuit(t *testing.T) {
	m := NewModel(nil, nil, nil, nil)
	m, cmd := update(t, m, key("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestSnapshotRendering(t *testing.T) {
	feed := NewFeed()
	m := NewModel(nil, feed.C(), nil, nil)
	assert.Contains(t, m.View(), "waiting for controller")

	m, cmd := update(t, m, SnapshotMsg(surface.Snapshot{
		Bar: 2, Beat: 3, Sixteenth: 1, Playing: true,
		Offset: 1, Size: 3, Selected: 2,
		Tracks: []string{"Drums", "Bass", "Keys", "Vox", "FX"},
	}))
	require.NotNil(t, cmd, "keeps listening")

	view := m.View()
	assert.Contains(t, view, "PLAY  2.3.1")
	assert.Contains(t, view, "Bass")
	assert.Contains(t, view, "▶ 2  Keys")
	assert.NotContains(t, view, "Drums\n")
	assert.Contains(t, view, "1 [2 ▶3 4] 5")

	feed.Publish(surface.Snapshot{Tracks: []string{"Solo"}, Size: 3, Selected: surface.NoSelection})
	msg := cmd()
	m, _ = update(t, m, msg)
	view = m.View()
	assert.Contains(t, view, "STOP")
	assert.Contains(t, view, "□ 2")
	assert.Contains(t, view, "□ 3")
}

func TestDeviceStatus(t *testing.T) {
	m := NewModel(nil, nil, nil, nil)
	assert.Contains(t, m.View(), "no controller")

	m, _ = update(t, m, DeviceMsg{Name: "Faderfox EC4", Connected: true})
	assert.Contains(t, m.View(), "Faderfox EC4")

	m, _ = update(t, m, DeviceMsg{Name: "Other", Connected: false})
	assert.Contains(t, m.View(), "Faderfox EC4")

	m, _ = update(t, m, DeviceMsg{Name: "Faderfox EC4", Connected: false})
	assert.Contains(t, m.View(), "no controller")
}

func TestFeedKeepsLatest(t *testing.T) {
	feed := NewFeed()
	feed.Publish(surface.Snapshot{Bar: 1})
	feed.Publish(surface.Snapshot{Bar: 2})
	feed.Publish(surface.Snapshot{Bar: 3})

	got := <-feed.C()
	assert.Equal(t, 3, got.Bar)
	select {
	case <-feed.C():
		t.Fatal("stale snapshot left in feed")
	default:
	}
}

func TestListenReturnsNilOnClose(t *testing.T) {
	ch := make(chan DeviceMsg)
	close(ch)
	assert.Nil(t, ListenForDevices(ch)())
}
