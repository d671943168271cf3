package tracker

import (
	"encoding/json"
	"fmt"

	"newsletter-go/pkg/models"
	"newsletter-go/pkg/sse"
)

// Event is the closed set of inputs accepted by Machine.Dispatch
type Event interface {
	event()
}

// Requested starts tracking a task id
type Requested struct {
	TaskID string
}

// Opened reports a successful low-level connection
type Opened struct{}

// StatusReceived carries a "status" frame
type StatusReceived struct {
	Payload models.StatusPayload
}

// EndReceived carries the final "end" frame
type EndReceived struct {
	Payload models.StatusPayload
}

// TransportFailed reports a dropped connection or an unreadable frame
type TransportFailed struct {
	Err error
}

func (Requested) event() {}
func (Opened) event() {}
func (StatusReceived) event() {}
func (EndReceived) event() {}
func (TransportFailed) event() {}

const (
	eventStatus = "status"
	eventEnd    = "end"
)

// decodeEvent maps a raw frame to a typed event. Unknown frame types return
// a nil Event and no error.
func decodeEvent(frame sse.Event) (Event, error) {
	switch frame.Type {
	case eventStatus, eventEnd:
	default:
		return nil, nil
	}

	var payload models.StatusPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return nil, fmt.Errorf("malformed %s payload: %w", frame.Type, err)
	}
	if !payload.Status.Valid() {
		return nil, fmt.Errorf("malformed %s payload: unknown status %q", frame.Type, payload.Status)
	}

	if frame.Type == eventEnd {
		return EndReceived{Payload: payload}, nil
	}
	return StatusReceived{Payload: payload}, nil
}
