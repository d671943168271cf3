package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"newsletter-go/pkg/models"
)

// Submit schedules newsletter generation for urls and returns the task id.
// It issues exactly one request and never retries.
func (c *Client) Submit(ctx context.Context, urls []string, opts models.Options) (string, error) {
	if len(urls) == 0 {
		return "", ErrEmptyBatch
	}
	if err := opts.Validate(); err != nil {
		return "", newValidationError(err.Error(), err)
	}

	payload := models.GenerateRequest{URLs: urls}
	if !opts.IsZero() {
		payload.Options = &opts
	}

	var created models.GenerateResponse
	if err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/generate", payload, &created, ErrorTypeSubmission); err != nil {
		return "", err
	}
	if created.TaskID == "" {
		return "", &Error{Type: ErrorTypeSubmission, Message: "Server did not return a task id."}
	}

	c.log.Info("task submitted", "task_id", created.TaskID, "urls", len(urls))
	return created.TaskID, nil
}

// Status retrieves the current status of a task with a single request
func (c *Client) Status(ctx context.Context, taskID string) (*models.StatusPayload, error) {
	var status models.StatusPayload
	path := fmt.Sprintf("%s/status/%s", apiPrefix, url.PathEscape(taskID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &status, ErrorTypeFetch); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchResult retrieves the final artifact of a completed task
func (c *Client) FetchResult(ctx context.Context, taskID string) (models.ResultArtifact, error) {
	var result models.ResultResponse
	path := fmt.Sprintf("%s/result/%s", apiPrefix, url.PathEscape(taskID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &result, ErrorTypeFetch); err != nil {
		return models.ResultArtifact{}, err
	}
	if result.TaskID == "" {
		result.TaskID = taskID
	}
	return result.Artifact(), nil
}

// UploadManifest sends a manifest file to the backend for server-side
// parsing and returns the URLs it accepted.
func (c *Client) UploadManifest(ctx context.Context, filename string, r io.Reader) (*models.UploadResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		Post(apiPrefix + "/upload")
	if err != nil {
		return nil, &Error{Type: ErrorTypeSubmission, Cause: err}
	}

	var uploaded models.UploadResponse
	if err := c.decodeResponse(resp, &uploaded, ErrorTypeSubmission); err != nil {
		return nil, err
	}
	return &uploaded, nil
}
