// Package style holds the colours and icons shared by the logger and renderers.
package style

import "github.com/charmbracelet/lipgloss"

// Colours.
var (
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Arrow   = "→"
	Circle  = "○"
)
