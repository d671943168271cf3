// Package sse reads Server-Sent Event frames from a response body.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

// Event is a single dispatched frame
type Event struct {
	ID   string
	Type string
	Data []byte
}

// Decoder parses frames from a stream one at a time.
type Decoder struct {
	reader *bufio.Reader
}

// NewDecoder constructs a Decoder for r
func NewDecoder(r io.Reader) *Decoder {
	if r == nil {
		r = bytes.NewReader(nil)
	}
	return &Decoder{reader: bufio.NewReader(r)}
}

// Next blocks until a complete frame is available. Comment lines and frames
// without data are skipped. A stream that ends mid-frame yields
// io.ErrUnexpectedEOF; a clean end yields io.EOF.
func (d *Decoder) Next(ctx context.Context) (Event, error) {
	var (
		event   Event
		data    bytes.Buffer
		hasData bool
		pending bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		line, err := d.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) && pending {
				return Event{}, io.ErrUnexpectedEOF
			}
			return Event{}, err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if hasData {
				event.Data = data.Bytes()
				return event, nil
			}
			event, pending = Event{}, false
			continue
		}
		pending = true
		if strings.HasPrefix(trimmed, ":") {
			continue
		}

		field, value, _ := strings.Cut(trimmed, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event.Type = value
		case "id":
			event.ID = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
}
