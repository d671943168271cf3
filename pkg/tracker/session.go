package tracker

import (
	"context"
	"fmt"
	"sync"

	"newsletter-go/pkg/cli/client"
	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"
)

// Session owns the single active task and its stream. Starting a new
// submission or watch retires whatever stream came before.
type Session struct {
	ctx      context.Context
	backend  Backend
	observer Observer
	log      logger.Logger

	mu     sync.Mutex
	stream *Stream
}

// NewSession creates a session. ctx bounds every stream and fetch the
// session starts.
func NewSession(ctx context.Context, backend Backend, observer Observer) *Session {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Session{
		ctx:      ctx,
		backend:  backend,
		observer: observer,
		log:      logger.Get().With("component", "session"),
	}
}

// Submit sends urls for generation and starts tracking the new task. An
// empty batch is rejected without touching the network.
func (s *Session) Submit(ctx context.Context, urls []string, opts models.Options) (string, error) {
	if len(urls) == 0 {
		s.observer.OnMessage(client.ErrEmptyBatch.UserMessage(), LevelWarning)
		return "", client.ErrEmptyBatch
	}

	s.retire()

	s.observer.OnMessage(fmt.Sprintf("Submitting %d URLs...", len(urls)), LevelInfo)
	taskID, err := s.backend.Submit(ctx, urls, opts)
	if err != nil {
		s.log.Error("submission failed", "urls", len(urls), "error", err)
		s.observer.OnMessage(userMessage("Submission failed", err), LevelError)
		return "", err
	}

	s.log.Info("task submitted", "task_id", taskID, "urls", len(urls))
	s.observer.OnMessage(fmt.Sprintf("Task %s accepted. Tracking progress...", taskID), LevelInfo)
	s.Watch(taskID)
	return taskID, nil
}

// Watch tracks taskID. A live stream for the same task is reused; anything
// else is closed first.
func (s *Session) Watch(taskID string) *Stream {
	s.mu.Lock()
	prev := s.stream
	if prev != nil && prev.TaskID() == taskID && prev.State().Live() {
		s.mu.Unlock()
		return prev
	}
	s.stream = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	next := OpenStream(s.ctx, s.backend, taskID, s.observer)

	s.mu.Lock()
	raced := s.stream
	s.stream = next
	s.mu.Unlock()

	if raced != nil {
		raced.Close()
	}
	return next
}

// Cancel stops tracking the current task locally. The backend has no
// cancellation endpoint, so server-side work carries on.
func (s *Session) Cancel() {
	if !s.retire() {
		return
	}
	s.observer.OnMessage("Stopped tracking the current task.", LevelInfo)
	s.observer.OnConnectionState(StateIdle)
}

// Task returns a copy of the current task, if any
func (s *Session) Task() (models.Task, bool) {
	st := s.Stream()
	if st == nil {
		return models.Task{}, false
	}
	return st.Task(), true
}

// Stream returns the active stream or nil
func (s *Session) Stream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Close releases the active stream
func (s *Session) Close() {
	s.retire()
}

func (s *Session) retire() bool {
	s.mu.Lock()
	prev := s.stream
	s.stream = nil
	s.mu.Unlock()

	if prev == nil {
		return false
	}
	s.log.Debug("retiring stream", "task_id", prev.TaskID())
	prev.Close()
	return true
}
