package theme

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type RGB [3]uint8

// Hex renders the color as a lipgloss foreground
func (c RGB) Hex() lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

// Palette is an ordered color ramp. Monitor elements pick a position on it.
type Palette struct {
	Name   string
	Colors []RGB
}

// Default is a plasma-like ramp used when no GIMP palette is configured
func Default() *Palette {
	return &Palette{
		Name: "plasma",
		Colors: []RGB{
			{13, 8, 135},
			{84, 2, 163},
			{139, 10, 165},
			{185, 50, 137},
			{219, 92, 104},
			{244, 136, 73},
			{254, 188, 43},
			{240, 249, 33},
		},
	}
}

// Load reads a GIMP palette, or returns the default palette when path is empty
func Load(path string) (*Palette, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadGPL(path)
}

// LoadGPL reads a GIMP palette file. Color lines must hold three channel
// values in 0-255; anything after them is the color's name and is ignored.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Palette{}
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}
		if skipGPLLine(line) {
			continue
		}
		c, err := parseGPLColor(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", path)
	}
	return p, nil
}

func skipGPLLine(line string) bool {
	return line == "" || line[0] == '#' ||
		strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns:")
}

func parseGPLColor(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return c, fmt.Errorf("channel %q: %w", fields[i], err)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Lookup blends the two palette entries around pos, a position in 0-1
func (p *Palette) Lookup(pos float64) RGB {
	last := len(p.Colors) - 1
	switch {
	case pos <= 0 || last == 0:
		return p.Colors[0]
	case pos >= 1:
		return p.Colors[last]
	}
	scaled := pos * float64(last)
	i := int(scaled)
	return blend(p.Colors[i], p.Colors[i+1], scaled-float64(i))
}

func blend(a, b RGB, t float64) RGB {
	var out RGB
	for i := range out {
		out[i] = uint8(float64(a[i])*(1-t) + float64(b[i])*t)
	}
	return out
}
