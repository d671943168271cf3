package models

import "time"

// GenerateRequest is the body of the submit endpoint
type GenerateRequest struct {
	URLs    []string `json:"urls" binding:"required,min=1,dive,url"`
	Options *Options `json:"options,omitempty"`
}

// GenerateResponse is returned once a task has been scheduled
type GenerateResponse struct {
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`
}

// StatusPayload is carried by both "status" and "end" stream events and by
// the one-shot status endpoint.
type StatusPayload struct {
	TaskID   string     `json:"task_id,omitempty"`
	Status   TaskStatus `json:"status"`
	Progress *Progress  `json:"progress,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// WireResultMetadata mirrors the metadata object of the result endpoint
type WireResultMetadata struct {
	GeneratedAt    *time.Time `json:"generated_at,omitempty"`
	TotalProcessed *int       `json:"total_processed,omitempty"`
	Topics         []string   `json:"topics,omitempty"`
}

// ResultResponse is the body of the result endpoint
type ResultResponse struct {
	TaskID          string              `json:"task_id"`
	Status          TaskStatus          `json:"status"`
	MarkdownContent string              `json:"markdown_content"`
	Metadata        *WireResultMetadata `json:"metadata,omitempty"`
}

// Artifact converts the wire response into a ResultArtifact, defaulting
// absent topics to an empty list.
func (r ResultResponse) Artifact() ResultArtifact {
	artifact := ResultArtifact{
		TaskID:  r.TaskID,
		Content: r.MarkdownContent,
		Metadata: ResultMetadata{
			GeneratedTopics: []string{},
		},
	}
	if r.Metadata != nil {
		if r.Metadata.Topics != nil {
			artifact.Metadata.GeneratedTopics = append([]string{}, r.Metadata.Topics...)
		}
		if r.Metadata.TotalProcessed != nil {
			artifact.Metadata.TotalProcessed = *r.Metadata.TotalProcessed
		}
		artifact.Metadata.GeneratedAt = r.Metadata.GeneratedAt
	}
	return artifact
}

// UploadResponse is returned by the manifest upload endpoint
type UploadResponse struct {
	URLs        []string `json:"urls"`
	InvalidURLs []string `json:"invalid_urls"`
}

// ErrorResponse is the JSON error body returned by the backend
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
}
