package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spoofmac/spoofmac/internal/spoof"
)

var (
	// Colors
	colorAccent  = lipgloss.Color("#FF6B35")
	colorGreen   = lipgloss.Color("#00B894")
	colorRed     = lipgloss.Color("#D63031")
	colorYellow  = lipgloss.Color("#FDCB6E")
	colorBlue    = lipgloss.Color("#0984E3")
	colorCyan    = lipgloss.Color("#00CEC9")
	colorGray    = lipgloss.Color("#636E72")
	colorDimGray = lipgloss.Color("#2D3436")
	colorWhite   = lipgloss.Color("#DFE6E9")

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingRight(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite).
				Background(colorDimGray)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	progressStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	// Key bindings help
	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// StateBadge renders the spoof state of an interface.
func StateBadge(s spoof.State) string {
	if s == spoof.Spoofed {
		return lipgloss.NewStyle().Bold(true).Foreground(colorRed).Render("● SPOOFED")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorGreen).Render("● ORIGINAL")
}
