package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"newsletter-go/pkg/batch"
	"newsletter-go/pkg/models"
)

// FormatBatchTable formats an analysis result as tables for CLI output
func FormatBatchTable(res batch.Result) string {
	if res.Empty() {
		return "No URLs found.\n"
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Accepted (%d)", len(res.Accepted))))
	b.WriteString("\n")
	writeURLTable(&b, res.Accepted, 80)

	if len(res.Duplicates) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("Duplicates (%d)", len(res.Duplicates))))
		b.WriteString("\n")
		writeURLTable(&b, res.Duplicates, 80)
	}

	if len(res.Invalid) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Invalid (%d)", len(res.Invalid))))
		b.WriteString("\n")
		writeURLTable(&b, res.Invalid, 80)
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: %d accepted, %d duplicate(s), %d invalid\n",
		len(res.Accepted), len(res.Duplicates), len(res.Invalid)))
	return b.String()
}

func writeURLTable(b *strings.Builder, urls []string, maxLen int) {
	w := tabwriter.NewWriter(b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tURL")
	fmt.Fprintln(w, strings.Repeat("─", 4)+"\t"+strings.Repeat("─", maxLen))
	for i, u := range urls {
		fmt.Fprintf(w, "%d\t%s\n", i+1, TruncateURL(u, maxLen))
	}
	w.Flush()
}

// FormatStatus formats a one-shot status query
func FormatStatus(taskID string, p *models.StatusPayload) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Task:     %s\n", taskID))
	b.WriteString(fmt.Sprintf("  Status:   %s\n", StatusLabel(p.Status)))
	if p.Progress != nil {
		b.WriteString(fmt.Sprintf("  Progress: %d/%d processed, %d failed\n",
			p.Progress.Processed, p.Progress.TotalURLs, p.Progress.Failed))
	} else {
		b.WriteString("  Progress: (no data)\n")
	}
	if p.Error != "" {
		b.WriteString(fmt.Sprintf("  Error:    %s\n", p.Error))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatArtifactSummary formats the metadata of a fetched newsletter and
// the files it was saved to, if any.
func FormatArtifactSummary(a models.ResultArtifact, savedPaths ...string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(successStyle.Render("✓ Newsletter ready!"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Task:      %s\n", a.TaskID))
	b.WriteString(fmt.Sprintf("  Processed: %d URL(s)\n", a.Metadata.TotalProcessed))
	b.WriteString(fmt.Sprintf("  Topics:    %s\n", FormatTopics(a.Metadata.GeneratedTopics)))
	if a.Metadata.GeneratedAt != nil {
		b.WriteString(fmt.Sprintf("  Generated: %s\n", a.Metadata.GeneratedAt.Local().Format("2006-01-02 15:04")))
	}
	for _, p := range savedPaths {
		b.WriteString(fmt.Sprintf("  Saved:     %s\n", p))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatTopics joins topic names, or reports that there are none
func FormatTopics(topics []string) string {
	if len(topics) == 0 {
		return "(none)"
	}
	return strings.Join(topics, ", ")
}

// FormatErrorMessage formats an error message consistently
func FormatErrorMessage(err error) string {
	return errorStyle.Render(fmt.Sprintf("❌ Error: %v", err)) + "\n"
}

// TruncateURL truncates a URL to the specified max length
func TruncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// StatusLabel renders a task status with its color
func StatusLabel(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return successStyle.Render(string(s))
	case models.TaskStatusFailed:
		return errorStyle.Render(string(s))
	case models.TaskStatusProcessing:
		return infoStyle.Render(string(s))
	default:
		return mutedStyle.Render(string(s))
	}
}
