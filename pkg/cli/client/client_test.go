package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-go/pkg/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "key-123", 2*time.Second), &calls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmit(t *testing.T) {
	t.Run("Should post urls and options and return the task id", func(t *testing.T) {
		var got models.GenerateRequest
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/newsletter/generate", r.URL.Path)
			assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusAccepted, models.GenerateResponse{TaskID: "t-1", Status: models.TaskStatusPending})
		})

		limit := 200
		id, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{MaxRecommendationLength: &limit})
		require.NoError(t, err)
		assert.Equal(t, "t-1", id)
		assert.Equal(t, []string{"https://a.com/"}, got.URLs)
		require.NotNil(t, got.Options)
		assert.Equal(t, 200, *got.Options.MaxRecommendationLength)
	})

	t.Run("Should omit options when none are set", func(t *testing.T) {
		var raw map[string]any
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			writeJSON(w, http.StatusAccepted, models.GenerateResponse{TaskID: "t-1"})
		})

		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{})
		require.NoError(t, err)
		assert.NotContains(t, raw, "options")
	})

	t.Run("Should reject an empty batch without a request", func(t *testing.T) {
		c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := c.Submit(context.Background(), nil, models.Options{})
		assert.ErrorIs(t, err, ErrEmptyBatch)
		assert.Zero(t, calls.Load())
	})

	t.Run("Should reject invalid options without a request", func(t *testing.T) {
		c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

		zero := 0
		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{MaxRecommendationLength: &zero})
		assert.True(t, IsType(err, ErrorTypeValidation))
		assert.Zero(t, calls.Load())
	})

	t.Run("Should surface server detail once with no retry", func(t *testing.T) {
		c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "queue is full"})
		})

		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{})
		require.Error(t, err)

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, ErrorTypeSubmission, apiErr.Type)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "queue is full", apiErr.UserMessage())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Should join validation detail lists", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": []map[string]string{{"msg": "invalid url"}, {"msg": "too many"}},
			})
		})

		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{})
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "invalid url; too many", apiErr.Message)
	})

	t.Run("Should fall back to a generic message", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "<html>oops</html>")
		})

		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{})
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Failed to submit URLs. Please try again.", apiErr.UserMessage())
	})

	t.Run("Should report a missing task id", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusAccepted, map[string]string{})
		})

		_, err := c.Submit(context.Background(), []string{"https://a.com/"}, models.Options{})
		assert.True(t, IsType(err, ErrorTypeSubmission))
	})
}

func TestFetchResult(t *testing.T) {
	t.Run("Should map the wire response to an artifact", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/newsletter/result/t-1", r.URL.Path)
			_, _ = io.WriteString(w, `{"task_id":"t-1","status":"completed","markdown_content":"# Hi",
				"metadata":{"total_processed":3,"topics":["go","rust"]}}`)
		})

		artifact, err := c.FetchResult(context.Background(), "t-1")
		require.NoError(t, err)
		assert.Equal(t, "t-1", artifact.TaskID)
		assert.Equal(t, "# Hi", artifact.Content)
		assert.Equal(t, []string{"go", "rust"}, artifact.Metadata.GeneratedTopics)
		assert.Equal(t, 3, artifact.Metadata.TotalProcessed)
	})

	t.Run("Should default missing topics to empty", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":"completed","markdown_content":"x","metadata":{"total_processed":1}}`)
		})

		artifact, err := c.FetchResult(context.Background(), "t-1")
		require.NoError(t, err)
		assert.Equal(t, "t-1", artifact.TaskID)
		assert.NotNil(t, artifact.Metadata.GeneratedTopics)
		assert.Empty(t, artifact.Metadata.GeneratedTopics)
	})

	t.Run("Should report conflicts as fetch errors", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "Task not completed"})
		})

		_, err := c.FetchResult(context.Background(), "t-1")
		assert.True(t, IsType(err, ErrorTypeFetch))
		assert.Contains(t, err.Error(), "Task not completed")
	})

	t.Run("Should report unparseable bodies", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "not json")
		})

		_, err := c.FetchResult(context.Background(), "t-1")
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Received an invalid response from the server.", apiErr.Message)
	})
}

func TestStatus(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/newsletter/status/t%201", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"task_id":"t 1","status":"processing","progress":{"total_urls":4,"processed":1,"failed":0}}`)
	})

	status, err := c.Status(context.Background(), "t 1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, status.Status)
	assert.Equal(t, &models.Progress{TotalURLs: 4, Processed: 1}, status.Progress)
}

func TestUploadManifest(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "urls.txt", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "https://a.com\n", string(data))
		writeJSON(w, http.StatusOK, models.UploadResponse{URLs: []string{"https://a.com/"}, InvalidURLs: []string{}})
	})

	resp, err := c.UploadManifest(context.Background(), "urls.txt", strings.NewReader("https://a.com\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/"}, resp.URLs)
}

func TestOpenEvents(t *testing.T) {
	t.Run("Should decode pushed frames", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "event: status\ndata: {\"status\":\"processing\"}\n\n")
			_, _ = io.WriteString(w, "event: end\ndata: {\"status\":\"completed\"}\n\n")
		})

		stream, err := c.OpenEvents(context.Background(), "t-1")
		require.NoError(t, err)
		defer stream.Close()

		ev, err := stream.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "status", ev.Type)
		assert.JSONEq(t, `{"status":"processing"}`, string(ev.Data))

		ev, err = stream.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "end", ev.Type)

		_, err = stream.Next(context.Background())
		assert.ErrorIs(t, err, io.EOF)

		assert.NoError(t, stream.Close())
		assert.NoError(t, stream.Close())
	})

	t.Run("Should report a refused stream as a transport error", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		})

		_, err := c.OpenEvents(context.Background(), "missing")
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, ErrorTypeStreamTransport, apiErr.Type)
		assert.Equal(t, "Task not found", apiErr.Message)
	})

	t.Run("Should stop reading when the context ends", func(t *testing.T) {
		release := make(chan struct{})
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		stream, err := c.OpenEvents(ctx, "t-1")
		require.NoError(t, err)
		defer stream.Close()

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err = stream.Next(ctx)
		assert.Error(t, err)
	})
}

func TestHealth(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	assert.NoError(t, c.Health(context.Background()))
}
