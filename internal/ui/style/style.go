// Package style holds the colors and icons shared by the logger and both
// renderers.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#14B8A6")
	Muted  = lipgloss.Color("#6B7280")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#DC2626")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons. The rule state icons are used by the dashboard list.
const (
	Check    = "✓"
	Cross    = "✗"
	Warning  = "!"
	Tilde    = "~"
	Running  = "●"
	Watching = "○"
	Restart  = "↻"
)
