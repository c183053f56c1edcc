package tui

import "github.com/charmbracelet/lipgloss"

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Label renders a dimmed key followed by a bright value, as used in run
// summaries.
func Label(key, value string) string {
	return dim.Render(key+" ") + white.Render(value)
}

func Title(s string) string   { return cyan.Bold(true).Render(s) }
func Success(s string) string { return green.Render(s) }
func Warning(s string) string { return yellow.Render(s) }
func Failure(s string) string { return red.Render(s) }
