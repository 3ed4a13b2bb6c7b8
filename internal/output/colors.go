package output

import (
	"github.com/fatih/color"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// ColorScheme defines the colors used for the parts of a run report
type ColorScheme struct {
	Title     *color.Color
	Label     *color.Color
	Value     *color.Color
	Good      *color.Color
	Warn      *color.Color
	Bad       *color.Color
	Rule      *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.Bold),
		Label:     color.New(color.FgWhite),
		Value:     color.New(color.FgCyan),
		Good:      color.New(color.FgGreen, color.Bold),
		Warn:      color.New(color.FgYellow, color.Bold),
		Bad:       color.New(color.FgRed, color.Bold),
		Rule:      color.New(color.FgCyan),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	for _, c := range s.all() {
		c.DisableColor()
	}
	return s
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Title, s.Label, s.Value, s.Good, s.Warn, s.Bad, s.Rule, s.Highlight}
}

// State returns the color for a generator state.
func (s *ColorScheme) State(st load.State) *color.Color {
	switch st {
	case load.StateSending:
		return s.Good
	case load.StateGated:
		return s.Warn
	case load.StateDraining:
		return s.Highlight
	default:
		return s.Label
	}
}

// Ratio returns Good, Warn or Bad for a success ratio in [0, 1].
func (s *ColorScheme) Ratio(r float64) *color.Color {
	switch {
	case r >= 0.99:
		return s.Good
	case r >= 0.95:
		return s.Warn
	default:
		return s.Bad
	}
}
