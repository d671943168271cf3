package tui

import (
	"fmt"
	"strings"
)

// HelpItem represents a single keyboard shortcut and its description
type HelpItem struct {
	Key         string
	Description string
}

// InputHelpLine is the one-line hint under the URL input
func InputHelpLine(hasResult bool) string {
	line := "ctrl+s submit • ctrl+x stop tracking • esc quit"
	if hasResult {
		line = "tab view result • " + line
	}
	return line
}

// ResultHelpContent returns help for the result view
func ResultHelpContent() string {
	items := []HelpItem{
		{"↑ / ↓ / PgUp / PgDn", "Scroll the newsletter"},
		{"s", "Save markdown and HTML to the output directory"},
		{"c", "Copy markdown to clipboard"},
		{"C", "Copy rendered HTML to clipboard"},
		{"Tab / Esc", "Back to URL input"},
		{"q / Ctrl+C", "Quit"},
		{"?", "Toggle this help"},
	}
	return renderHelpItems(items)
}

// renderHelpItems formats help items into a readable string
func renderHelpItems(items []HelpItem) string {
	var b strings.Builder
	for _, item := range items {
		keyStyle := boldStyle.Foreground(colorPrimary)
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(item.Key),
			item.Description))
	}
	return b.String()
}
