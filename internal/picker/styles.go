package picker

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("99")
	accent  = lipgloss.Color("86")
	muted   = lipgloss.Color("245")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	wordStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(muted)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)
)
