// Package style defines lipgloss styles for the TUI.
package style

import "github.com/charmbracelet/lipgloss"

// Variable names omit a "Style" suffix since they're accessed via the
// package (style.Title, not style.TitleStyle).
var (
	// Title is used for screen titles and headers.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Subtitle is used for secondary text.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Success is used for success messages.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error is used for error messages.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Warning is used for warning messages.
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Panel frames the processed content and text areas.
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key is used for highlighting keyboard keys.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Label is used for form labels ("Paciente:", "Data:").
	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for de-emphasized text (dates, previews).
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Selected marks the highlighted library row.
	Selected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	// Keyword renders a keyword badge.
	Keyword = lipgloss.NewStyle().
		Foreground(lipgloss.Color("63"))
)

// Status renders a record status badge in the status's color.
func Status(status, label string) string {
	color := lipgloss.Color("245")
	switch status {
	case "concluido":
		color = lipgloss.Color("42")
	case "processando":
		color = lipgloss.Color("214")
	case "erro":
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Foreground(color).Render("[" + label + "]")
}
