package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"newsletter-go/pkg/sse"
)

// EventStream is an open server-sent event connection for one task.
type EventStream struct {
	TaskID string

	body      io.ReadCloser
	decoder   *sse.Decoder
	closeOnce sync.Once
	closeErr  error
}

// Next blocks until the next event frame arrives
func (s *EventStream) Next(ctx context.Context) (sse.Event, error) {
	return s.decoder.Next(ctx)
}

// Close releases the connection. It is safe to call more than once.
func (s *EventStream) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if s.body != nil {
			s.closeErr = s.body.Close()
		}
	})
	return s.closeErr
}

// OpenEvents opens the push-event stream for taskID. The caller owns the
// returned stream and must Close it.
func (c *Client) OpenEvents(ctx context.Context, taskID string) (*EventStream, error) {
	path := fmt.Sprintf("%s/events/%s", apiPrefix, url.PathEscape(taskID))

	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		Get(path)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to establish event stream: %w", err))
	}

	body := resp.RawBody()
	if !resp.IsSuccess() {
		var detail string
		if body != nil {
			data, _ := io.ReadAll(io.LimitReader(body, 64*1024))
			body.Close()
			detail = errorDetail(data)
		}
		return nil, &Error{Type: ErrorTypeStreamTransport, StatusCode: resp.StatusCode(), Message: detail}
	}

	c.log.Debug("event stream opened", "task_id", taskID)
	return &EventStream{TaskID: taskID, body: body, decoder: sse.NewDecoder(body)}, nil
}
