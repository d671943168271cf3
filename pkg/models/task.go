package models

import "time"

// TaskStatus is the server-side lifecycle state of a generation task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions can happen
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Progress counts URLs handled by the backend so far
type Progress struct {
	TotalURLs int `json:"total_urls"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Task is the client-side view of one submitted batch.
type Task struct {
	ID       string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	Progress *Progress  `json:"progress,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate the owner's task
func (t Task) Clone() Task {
	c := t
	if t.Progress != nil {
		p := *t.Progress
		c.Progress = &p
	}
	return c
}

// ResultMetadata describes a generated artifact
type ResultMetadata struct {
	GeneratedTopics []string   `json:"generated_topics"`
	TotalProcessed  int        `json:"total_processed"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
}

// ResultArtifact is the final output of a completed task
type ResultArtifact struct {
	TaskID   string         `json:"task_id"`
	Content  string         `json:"content"`
	Metadata ResultMetadata `json:"metadata"`
}
