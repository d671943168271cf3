package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-go/pkg/cli/client"
	"newsletter-go/pkg/models"
)

func TestSession_Submit(t *testing.T) {
	t.Run("Should reject an empty batch without calling the backend", func(t *testing.T) {
		backend := newFakeBackend()
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), backend, obs)

		_, err := sess.Submit(context.Background(), nil, models.Options{})
		require.ErrorIs(t, err, client.ErrEmptyBatch)

		submits, connects := backend.counts()
		assert.Zero(t, submits)
		assert.Zero(t, connects)
		assert.Contains(t, obs.Messages(), message{"No valid URLs to submit.", LevelWarning})

		_, ok := sess.Task()
		assert.False(t, ok)
	})

	t.Run("Should start tracking the accepted task", func(t *testing.T) {
		backend := newFakeBackend()
		backend.submitID = "abc"
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), backend, obs)
		defer sess.Close()

		limit := 120
		opts := models.Options{MaxRecommendationLength: &limit}
		id, err := sess.Submit(context.Background(), []string{"https://a.example/"}, opts)
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
		assert.Equal(t, []string{"https://a.example/"}, backend.lastURLs)
		assert.Equal(t, &limit, backend.lastOptions.MaxRecommendationLength)

		task, ok := sess.Task()
		require.True(t, ok)
		assert.Equal(t, "abc", task.ID)
		waitState(t, sess.Stream(), StateStreaming)
	})

	t.Run("Should leave no task when the submission fails", func(t *testing.T) {
		backend := newFakeBackend()
		backend.submitErr = &client.Error{Type: client.ErrorTypeSubmission, StatusCode: 503, Message: "backend overloaded"}
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), backend, obs)

		_, err := sess.Submit(context.Background(), []string{"https://a.example/"}, models.Options{})
		require.Error(t, err)
		assert.True(t, client.IsType(err, client.ErrorTypeSubmission))

		_, ok := sess.Task()
		assert.False(t, ok)
		assert.Contains(t, obs.Messages(), message{"backend overloaded", LevelError})
		_, connects := backend.counts()
		assert.Zero(t, connects)
	})

	t.Run("Should retire the previous stream on a new submission", func(t *testing.T) {
		backend := newFakeBackend()
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), backend, obs)
		defer sess.Close()

		first, err := sess.Submit(context.Background(), []string{"https://a.example/"}, models.Options{})
		require.NoError(t, err)
		firstStream := sess.Stream()
		waitState(t, firstStream, StateStreaming)

		second, err := sess.Submit(context.Background(), []string{"https://b.example/"}, models.Options{})
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		waitDone(t, firstStream)
		assert.Equal(t, int32(1), backend.conn(first).closed.Load())

		// Late frames for the retired task never reach the observer.
		backend.conn(first).send("status", `{"task_id":"`+first+`","status":"completed"}`)
		assert.Zero(t, backend.fetchCount(first))

		task, ok := sess.Task()
		require.True(t, ok)
		assert.Equal(t, second, task.ID)
	})
}

func TestSession_Watch(t *testing.T) {
	t.Run("Should reuse a live stream for the same task", func(t *testing.T) {
		backend := newFakeBackend()
		sess := NewSession(context.Background(), backend, nil)
		defer sess.Close()

		a := sess.Watch("t1")
		waitState(t, a, StateStreaming)
		b := sess.Watch("t1")
		assert.Same(t, a, b)

		c := sess.Watch("t2")
		assert.NotSame(t, a, c)
		waitDone(t, a)
	})

	t.Run("Should reconnect after a disconnect", func(t *testing.T) {
		backend := newFakeBackend()
		sess := NewSession(context.Background(), backend, nil)
		defer sess.Close()

		backend.conn("t1").fail(errBoom)
		a := sess.Watch("t1")
		waitDone(t, a)
		require.Equal(t, StateDisconnected, a.State())

		fresh := backend.reset("t1")
		b := sess.Watch("t1")
		assert.NotSame(t, a, b)
		waitState(t, b, StateStreaming)

		_, connects := backend.counts()
		assert.Equal(t, 2, connects)
		assert.Zero(t, fresh.closed.Load())
	})
}

func TestSession_Cancel(t *testing.T) {
	t.Run("Should stop tracking locally and report idle", func(t *testing.T) {
		backend := newFakeBackend()
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), backend, obs)

		s := sess.Watch("t1")
		waitState(t, s, StateStreaming)

		sess.Cancel()
		waitDone(t, s)
		_, ok := sess.Task()
		assert.False(t, ok)
		states := obs.States()
		assert.Equal(t, StateIdle, states[len(states)-1])
	})

	t.Run("Should do nothing when no task is tracked", func(t *testing.T) {
		obs := &recordingObserver{}
		sess := NewSession(context.Background(), newFakeBackend(), obs)

		sess.Cancel()
		assert.Empty(t, obs.Messages())
	})
}
