// Package style provides the colors and icons shared by the router's terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Mist   = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "·"
	Arrow   = "→"
)

// Label renders a bold heading for command output, such as the sections of explain.
var Label = lipgloss.NewStyle().Bold(true).Foreground(Iris)

// Muted renders secondary text.
var Muted = lipgloss.NewStyle().Foreground(Slate)
