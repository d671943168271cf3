package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsletter-go/pkg/cli/logger"

	"github.com/go-resty/resty/v2"
)

const apiPrefix = "/api/v1/newsletter"

// Client is an HTTP client for the newsletter generation API
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	// stream has no overall timeout; event streams stay open for the
	// lifetime of a task.
	stream *resty.Client
	log    logger.Logger
}

// NewClient creates a new API client. Requests are never retried here.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Remove trailing slash from base URL
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     logger.Get().With("component", "client"),
	}
	c.http = c.newResty().SetTimeout(timeout)
	c.stream = c.newResty()
	return c
}

// BaseURL returns the API base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newResty() *resty.Client {
	r := resty.New().
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	// Only send Authorization when an API key is configured
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}
	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Debug("api response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})
	return r
}

// doRequest performs one request and decodes a JSON body into result.
// Failures are reported as *Error of errType.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	payload any,
	result any,
	errType ErrorType,
) error {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Error("request failed", "method", method, "path", path, "error", err)
		return &Error{Type: errType, Cause: err}
	}

	return c.decodeResponse(resp, result, errType)
}

func (c *Client) decodeResponse(resp *resty.Response, result any, errType ErrorType) error {
	if !resp.IsSuccess() {
		return &Error{
			Type:       errType,
			StatusCode: resp.StatusCode(),
			Message:    errorDetail(resp.Body()),
		}
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return &Error{
				Type:       errType,
				StatusCode: resp.StatusCode(),
				Message:    "Received an invalid response from the server.",
				Cause:      fmt.Errorf("failed to parse response: %w", err),
			}
		}
	}
	return nil
}

// errorDetail extracts a human-readable message from an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]} and
// {"error": "..."}; anything else yields "".
func errorDetail(body []byte) string {
	var errorResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return ""
	}

	if len(errorResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errorResp.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(errorResp.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(errorResp.Error)
}

// Health checks that the backend is reachable
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("service not available: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("service unhealthy: status %d", resp.StatusCode())
	}
	return nil
}
