package console

import "github.com/charmbracelet/lipgloss"

// theme groups reusable styles for the console transcript.
type theme struct {
	header    lipgloss.Style
	userTitle lipgloss.Style
	botTitle  lipgloss.Style
	botText   lipgloss.Style
	errorText lipgloss.Style
	hint      lipgloss.Style
	input     lipgloss.Style
	viewport  lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24")),
		userTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		botTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("44")),
		botText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("173")).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("24")).
			Padding(0, 1),
	}
}
