package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"oslo-surface/surface"
	"oslo-surface/theme"
	"oslo-surface/widgets"
)

// Controller receives the monitor's key commands. Implementations hand the
// work to the event loop; the monitor never touches the song directly.
type Controller interface {
	TogglePlay()
	SelectRelative(delta int)
}

type Model struct {
	Theme     *theme.Theme
	ctrl      Controller
	snapshots <-chan surface.Snapshot
	devices   <-chan DeviceMsg
	snap      surface.Snapshot
	synced    bool
	device    string
	width     int
	help      bool
	quitting  bool
}

var keyHelp = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "p / space", Desc: "play / stop"},
	}},
	{Title: "Tracks", Keys: []widgets.KeyBinding{
		{Key: "h / left", Desc: "select previous track"},
		{Key: "l / right", Desc: "select next track"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

// SnapshotMsg carries the latest surface state
type SnapshotMsg surface.Snapshot

// DeviceMsg reports a controller connecting or going away
type DeviceMsg struct {
	Name      string
	Connected bool
}

func NewModel(ctrl Controller, snapshots <-chan surface.Snapshot, devices <-chan DeviceMsg, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Theme:     th,
		ctrl:      ctrl,
		snapshots: snapshots,
		devices:   devices,
		snap:      surface.Snapshot{Selected: surface.NoSelection},
	}
}

func ListenForSnapshots(ch <-chan surface.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg(s)
	}
}

func ListenForDevices(ch <-chan DeviceMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ev
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForSnapshots(m.snapshots),
		ListenForDevices(m.devices),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "?":
			m.help = !m.help

		case "p", " ":
			if m.ctrl != nil {
				m.ctrl.TogglePlay()
			}

		case "h", "left":
			if m.ctrl != nil {
				m.ctrl.SelectRelative(-1)
			}

		case "l", "right":
			if m.ctrl != nil {
				m.ctrl.SelectRelative(1)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case SnapshotMsg:
		m.snap = surface.Snapshot(msg)
		m.synced = true
		return m, ListenForSnapshots(m.snapshots)

	case DeviceMsg:
		if msg.Connected {
			m.device = msg.Name
		} else if msg.Name == m.device || msg.Name == "" {
			m.device = ""
		}
		return m, ListenForDevices(m.devices)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	dimStyle := th.Dim()

	s := m.snap
	playState := "STOP"
	if s.Playing {
		playState = "PLAY"
	}
	device := "no controller"
	if m.device != "" {
		device = m.device
	}
	device = th.Device(m.device != "").Render(device)

	header := th.Header(s.Playing).Render(fmt.Sprintf("oslo-surface  %s  %d.%d.%d", playState, s.Bar, s.Beat, s.Sixteenth))

	sym := th.Symbols
	beatOn, off := th.LEDs(s.Beat == 1)
	stepOn, _ := th.LEDs(s.Sixteenth == 1)
	beats := widgets.LEDRow{Count: surface.BeatsPerBar, Lit: s.Beat, On: sym.LEDOn, Off: sym.LEDOff, OnColor: beatOn, Dim: off}
	sixteenths := widgets.LEDRow{Count: surface.SixteenthsPerBeat, Lit: s.Sixteenth, On: sym.LEDOn, Off: sym.LEDOff, OnColor: stepOn, Dim: off}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header + "  " + device)
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render("beat ") + beats.Render())
	out.WriteString("   ")
	out.WriteString(dimStyle.Render("16th ") + sixteenths.Render())
	out.WriteString("\n\n")

	if !m.synced {
		out.WriteString(dimStyle.Render("waiting for controller..."))
	} else {
		out.WriteString(widgets.RenderWindow(s.Tracks, s.Offset, s.Size, s.Selected, m.width))
		out.WriteString("\n\n")
		for _, slot := range widgets.WindowSlots(s.Tracks, s.Offset, s.Size, s.Selected) {
			if !slot.Visible {
				continue
			}
			strip := slot.Index - s.Offset + 1
			line := fmt.Sprintf("%2d  %s", strip, slot.Name)
			glyph := sym.Slot
			if slot.Selected {
				glyph = sym.Selected
			}
			out.WriteString(th.Track(slot.Selected).Render(string(glyph) + line))
			out.WriteString("\n")
		}
		for strip := max(len(s.Tracks)-s.Offset, 0) + 1; strip <= s.Size; strip++ {
			out.WriteString(dimStyle.Render(fmt.Sprintf("%c%2d", sym.Empty, strip)))
			out.WriteString("\n")
		}
	}

	out.WriteString("\n")
	if m.help {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render("p:play/stop  h/l:select track  ?:help  q:quit"))
	}
	return out.String()
}
