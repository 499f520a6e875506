package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderSymbol renders r in color
func RenderSymbol(r rune, color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(r))
}

// LEDRow is a row of LEDs, e.g. the four beats of a bar
type LEDRow struct {
	Count   int
	Lit     int // 1-based, 0 for none
	On, Off rune
	OnColor [3]uint8
	Dim     [3]uint8
}

// Render draws the row with the lit LED highlighted
func (r LEDRow) Render() string {
	var out strings.Builder
	for i := 1; i <= r.Count; i++ {
		if i > 1 {
			out.WriteString(" ")
		}
		if i == r.Lit {
			out.WriteString(RenderSymbol(r.On, r.OnColor))
		} else {
			out.WriteString(RenderSymbol(r.Off, r.Dim))
		}
	}
	return out.String()
}

// WindowSlot is one line of the window strip
type WindowSlot struct {
	Index    int
	Name     string
	Visible  bool
	Selected bool
}

// WindowSlots lists every track with its visibility in the window
func WindowSlots(names []string, offset, size, selected int) []WindowSlot {
	slots := make([]WindowSlot, len(names))
	for i, name := range names {
		slots[i] = WindowSlot{
			Index:    i,
			Name:     name,
			Visible:  i >= offset && i < offset+size,
			Selected: i == selected,
		}
	}
	return slots
}

// RenderWindow renders the track list as a single line, bracketing the
// window and marking the selection. Tracks far outside the window are elided.
func RenderWindow(names []string, offset, size, selected int, width int) string {
	if len(names) == 0 {
		return "(no tracks)"
	}
	var cells []string
	for _, s := range WindowSlots(names, offset, size, selected) {
		label := fmt.Sprintf("%d", s.Index+1)
		if s.Selected {
			label = "▶" + label
		}
		if s.Index == offset {
			label = "[" + label
		}
		if s.Index == offset+size-1 || (s.Visible && s.Index == len(names)-1) {
			label += "]"
		}
		cells = append(cells, label)
	}
	line := strings.Join(cells, " ")
	if width > 0 && lipgloss.Width(line) > width {
		line = truncate(line, width)
	}
	return line
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width < 1 {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
