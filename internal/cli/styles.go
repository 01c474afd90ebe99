package cli

import "github.com/charmbracelet/lipgloss"

// styles used by the spark CLI
var styles = struct {
	Title lipgloss.Style
	Image lipgloss.Style
	Faint lipgloss.Style
	Index lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	Image: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),
	Faint: lipgloss.NewStyle().Faint(true),
	Index: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Width(4),
}
