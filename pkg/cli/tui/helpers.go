package tui

import (
	"fmt"
	"strings"

	"newsletter-go/pkg/batch"
	"newsletter-go/pkg/models"
)

// maxListed caps how many duplicate or invalid lines are shown inline
const maxListed = 3

// renderAnalysis summarizes the live batch analysis under the input
func renderAnalysis(res batch.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d\n",
		successStyle.Render("Accepted:"), len(res.Accepted),
		warningStyle.Render("Duplicates:"), len(res.Duplicates),
		errorStyle.Render("Invalid:"), len(res.Invalid),
	))

	b.WriteString(renderListed("duplicate", res.Duplicates))
	b.WriteString(renderListed("invalid", res.Invalid))
	return b.String()
}

func renderListed(label string, items []string) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for i, item := range items {
		if i == maxListed {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  … and %d more %s\n", len(items)-maxListed, label)))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mutedStyle.Render(label+":"), urlStyle.Render(truncateURL(item, 70))))
	}
	return b.String()
}

// renderMessages renders the message log, newest last
func renderMessages(lines []logLine) string {
	if len(lines) == 0 {
		return mutedStyle.Render("No messages yet.") + "\n"
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(renderLevel(line.text, line.level))
		b.WriteString("\n")
	}
	return b.String()
}

// renderResultHeader renders the artifact metadata above the viewport
func renderResultHeader(a models.ResultArtifact) string {
	var b strings.Builder

	topics := "(none)"
	if len(a.Metadata.GeneratedTopics) > 0 {
		topics = strings.Join(a.Metadata.GeneratedTopics, ", ")
	}

	b.WriteString(fieldLabelStyle.Render("Task:"))
	b.WriteString(fmt.Sprintf(" %s\n", a.TaskID))
	b.WriteString(fieldLabelStyle.Render("Topics:"))
	b.WriteString(fmt.Sprintf(" %s\n", topics))
	b.WriteString(fieldLabelStyle.Render("Processed:"))
	b.WriteString(fmt.Sprintf(" %d URL(s)\n\n", a.Metadata.TotalProcessed))
	return b.String()
}

// truncateURL truncates a URL to the specified max length
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}
