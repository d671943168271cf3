package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Should write structured key values", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "debug", "cli")

		l.With("task_id", "abc").Info("stream opened", "state", "streaming")

		out := buf.String()
		assert.Contains(t, out, "stream opened")
		assert.Contains(t, out, "task_id=abc")
		assert.Contains(t, out, "state=streaming")
	})

	t.Run("Should filter below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "warn", "")

		l.Info("hidden")
		l.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Should fall back to info for unknown levels", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "loud", "")

		l.Debug("hidden")
		l.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestInit(t *testing.T) {
	t.Run("Should create a log file in the configured directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Init(Config{Level: "info", Dir: dir}))
		t.Cleanup(Close)

		Info("hello from test")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Name(), "cli-")
	})
}
