package output

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Success renders a line prefixed with a check mark
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Error renders a line prefixed with a cross
func Error(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

// Warning renders a warning line
func Warning(msg string) string {
	return warningStyle.Render("⚠ " + msg)
}

// Info renders an informational line
func Info(msg string) string {
	return infoStyle.Render("⏳ " + msg)
}

// Muted renders secondary text
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}
