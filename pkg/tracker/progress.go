package tracker

import (
	"fmt"
	"math"

	"newsletter-go/pkg/models"
)

// ProgressSnapshot is a display-ready view of task progress
type ProgressSnapshot struct {
	TaskID    string
	Status    models.TaskStatus
	Total     int
	Processed int
	Failed    int
	// Percent is only meaningful when HasData is true
	Percent int
	HasData bool
}

// NewProgressSnapshot computes the display percentage. Missing or zero
// totals produce a snapshot without data instead of a percentage.
func NewProgressSnapshot(taskID string, status models.TaskStatus, p *models.Progress) ProgressSnapshot {
	snap := ProgressSnapshot{TaskID: taskID, Status: status}
	if p == nil {
		return snap
	}
	snap.Total = p.TotalURLs
	snap.Processed = p.Processed
	snap.Failed = p.Failed
	if p.TotalURLs <= 0 {
		return snap
	}

	processed := min(max(p.Processed, 0), p.TotalURLs)
	snap.HasData = true
	snap.Percent = int(math.Round(float64(processed) / float64(p.TotalURLs) * 100))
	return snap
}

// Fraction returns the completed share in [0, 1]
func (s ProgressSnapshot) Fraction() float64 {
	if !s.HasData {
		return 0
	}
	return float64(s.Percent) / 100
}

// Text renders the snapshot for humans
func (s ProgressSnapshot) Text() string {
	if !s.HasData {
		return "No progress data yet"
	}
	processed := min(max(s.Processed, 0), s.Total)
	text := fmt.Sprintf("%d%% (%d/%d URLs processed", s.Percent, processed, s.Total)
	if s.Failed > 0 {
		text += fmt.Sprintf(", %d failed", s.Failed)
	}
	return text + ")"
}
