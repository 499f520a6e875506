package theme

import "github.com/charmbracelet/lipgloss"

// Theme colors the monitor from a palette. Each element sits at a fixed
// position on the ramp, so swapping the palette restyles the whole view.
type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	LEDOn  rune // ● lit LED
	LEDOff rune // ○ dark LED

	Slot     rune // ■ track inside the window
	Empty    rune // □ strip without a track
	Selected rune // ▶ selected track
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			LEDOn:  '●',
			LEDOff: '○',

			Slot:     '■',
			Empty:    '□',
			Selected: '▶',
		},
	}
}

// Palette positions of the monitor elements
const (
	posDim      = 0.2
	posTrack    = 0.4
	posStopped  = 0.5
	posSelected = 0.6
	posLED      = 0.7
	posDownbeat = 0.85
	posPlaying  = 0.9
	posOnline   = 1.0
)

// Header styles the transport line, brighter while the song plays
func (t *Theme) Header(playing bool) lipgloss.Style {
	if playing {
		return t.fg(posPlaying)
	}
	return t.fg(posStopped)
}

// Dim styles labels, key hints and strips without a track
func (t *Theme) Dim() lipgloss.Style { return t.fg(posDim) }

func (t *Theme) Track(selected bool) lipgloss.Style {
	if selected {
		return t.fg(posSelected).Bold(true)
	}
	return t.fg(posTrack)
}

// Device styles the bound controller's name, or the placeholder without one
func (t *Theme) Device(connected bool) lipgloss.Style {
	if connected {
		return t.fg(posOnline)
	}
	return t.Dim()
}

// LEDs returns the lit and dark colors of an LED row. The first step of a
// row, the downbeat, lights in its own color.
func (t *Theme) LEDs(downbeat bool) (on, off RGB) {
	on = t.Palette.Lookup(posLED)
	if downbeat {
		on = t.Palette.Lookup(posDownbeat)
	}
	return on, t.Palette.Lookup(posDim)
}

func (t *Theme) fg(pos float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.Lookup(pos).Hex())
}
