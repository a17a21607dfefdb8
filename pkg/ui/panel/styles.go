package panel

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accent   = lipgloss.Color("#00D7D7")
	magenta  = lipgloss.Color("#D75FD7")
	green    = lipgloss.Color("#5FD75F")
	orange   = lipgloss.Color("#FF8700")
	red      = lipgloss.Color("#FF5F5F")
	dimWhite = lipgloss.Color("#B0B0B0")
	grey     = lipgloss.Color("#626262")

	titleStyle = lipgloss.NewStyle().
			Background(magenta).
			Foreground(lipgloss.Color("#1A1A1A")).
			Bold(true).
			Padding(0, 1)

	pageStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			PaddingLeft(1)

	statsStyle = lipgloss.NewStyle().
			Foreground(accent)

	rowStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	cursorRowStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	checkStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(grey)

	statusStyle = lipgloss.NewStyle().
			Foreground(green)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(orange).
			Foreground(orange).
			Bold(true).
			Padding(0, 2)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(magenta).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(grey).
			PaddingTop(1)
)
