package ui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the styles the detail page renders with.
type Theme struct {
	Name string

	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Faint   lipgloss.Style
	Banner  lipgloss.Style
	Missing lipgloss.Style
	Alert   lipgloss.Style
}

func themeByName(name string) Theme {
	switch name {
	case "Nord":
		return buildTheme("Nord", "#88C0D0", "#81A1C1", "#ECEFF4", "#4C566A", "#A3BE8C", "#EBCB8B", "#BF616A")
	default:
		return buildTheme("Dracula", "#BD93F9", "#8BE9FD", "#F8F8F2", "#6272A4", "#50FA7B", "#F1FA8C", "#FF5555")
	}
}

func buildTheme(name, title, label, value, faint, banner, missing, alert string) Theme {
	return Theme{
		Name:    name,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(title)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(label)),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color(value)),
		Faint:   lipgloss.NewStyle().Foreground(lipgloss.Color(faint)),
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(banner)),
		Missing: lipgloss.NewStyle().Foreground(lipgloss.Color(missing)),
		Alert: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(alert)).
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(alert)).Padding(0, 1),
	}
}
