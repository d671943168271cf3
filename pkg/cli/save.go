package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newsletter-go/pkg/models"
	"newsletter-go/pkg/render"
)

// SaveArtifact writes <task_id>.md and a rendered <task_id>.html into dir
// and returns the written paths.
func SaveArtifact(dir string, artifact models.ResultArtifact, renderFn render.Func) ([]string, error) {
	name := safeName(artifact.TaskID)
	if name == "" {
		return nil, fmt.Errorf("cannot save a result without a task id")
	}
	if renderFn == nil {
		renderFn = render.Markdown
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	mdPath := filepath.Join(dir, name+".md")
	if err := os.WriteFile(mdPath, []byte(artifact.Content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write markdown: %w", err)
	}

	title := "Newsletter " + name
	page := render.Document(title, renderFn(artifact.Content))
	htmlPath := filepath.Join(dir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		return nil, fmt.Errorf("failed to write html: %w", err)
	}

	return []string{mdPath, htmlPath}, nil
}

// safeName keeps task ids from escaping the output directory
func safeName(taskID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, taskID)
}
