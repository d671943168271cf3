package sse

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderNext(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decode named events in order", func(t *testing.T) {
		stream := "event: status\ndata: {\"status\":\"pending\"}\n\n" +
			"event:end\r\ndata:{\"status\":\"completed\"}\r\n\r\n"
		d := NewDecoder(strings.NewReader(stream))

		first, err := d.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "status", first.Type)
		assert.JSONEq(t, `{"status":"pending"}`, string(first.Data))

		second, err := d.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "end", second.Type)
		assert.JSONEq(t, `{"status":"completed"}`, string(second.Data))

		_, err = d.Next(ctx)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Should skip comments and heartbeats", func(t *testing.T) {
		stream := ": ping\n\n\n: keepalive\nevent: status\nid: 4\ndata: a\ndata: b\n\n"
		d := NewDecoder(strings.NewReader(stream))

		ev, err := d.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "status", ev.Type)
		assert.Equal(t, "4", ev.ID)
		assert.Equal(t, "a\nb", string(ev.Data))
	})

	t.Run("Should report a truncated frame as unexpected EOF", func(t *testing.T) {
		d := NewDecoder(strings.NewReader("event: status\ndata: {\"sta"))

		_, err := d.Next(ctx)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("Should stop when the context is cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewDecoder(strings.NewReader("data: x\n\n")).Next(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
