// Package display renders the live outbound UI-message stream (spec §6) to
// the terminal with bubbletea/lipgloss, standing in for the excluded
// graphical front-end as a narrow consumer of C9's UI channel rather than
// the front-end itself.
//
// Grounded on ako-backing-tracks' display/tui.go (Bubbletea Model/Update/View
// shape, lipgloss style-variable set).
package display

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#00FFFF")
	secondaryColor = lipgloss.Color("#FFFF00")
	accentColor    = lipgloss.Color("#00FF00")
	dimColor       = lipgloss.Color("#666666")
	rootColor      = lipgloss.Color("#FF6666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	chordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	rootStyle = lipgloss.NewStyle().
			Foreground(rootColor)

	beatStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	currentBeatStyle = lipgloss.NewStyle().
				Foreground(accentColor)

	partStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	columnStyle = lipgloss.NewStyle().
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("#444444"))
)
