// Package style provides the brand colors and icons shared by every
// terminal surface.
package style

import "github.com/charmbracelet/lipgloss"

// Brand colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "●"
)

// Banner styles.
var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Iris)
	Label = lipgloss.NewStyle().Foreground(Slate)
	Value = lipgloss.NewStyle().Foreground(White)
)
