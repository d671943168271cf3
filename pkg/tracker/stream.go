package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"newsletter-go/pkg/cli/client"
	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/sse"
)

// ErrStreamClosed is reported when the server ends the event stream without
// an end frame.
var ErrStreamClosed = errors.New("event stream closed by server")

// Connection is an open event stream
type Connection interface {
	Next(ctx context.Context) (sse.Event, error)
	Close() error
}

// Backend is the subset of the generation API the tracker needs.
type Backend interface {
	Submit(ctx context.Context, urls []string, opts models.Options) (string, error)
	Connect(ctx context.Context, taskID string) (Connection, error)
	FetchResult(ctx context.Context, taskID string) (models.ResultArtifact, error)
}

type clientBackend struct {
	c *client.Client
}

// FromClient adapts an API client to Backend
func FromClient(c *client.Client) Backend {
	return clientBackend{c: c}
}

func (b clientBackend) Submit(ctx context.Context, urls []string, opts models.Options) (string, error) {
	return b.c.Submit(ctx, urls, opts)
}

func (b clientBackend) Connect(ctx context.Context, taskID string) (Connection, error) {
	stream, err := b.c.OpenEvents(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (b clientBackend) FetchResult(ctx context.Context, taskID string) (models.ResultArtifact, error) {
	return b.c.FetchResult(ctx, taskID)
}

// Stream tracks one task over one event connection. It owns the connection
// and the result fetch; Close releases both.
type Stream struct {
	taskID   string
	backend  Backend
	machine  *Machine
	observer *guardedObserver
	log      logger.Logger

	// connCtx ends with the connection, fetchCtx only with Close.
	connCtx     context.Context
	connCancel  context.CancelFunc
	fetchCtx    context.Context
	fetchCancel context.CancelFunc

	mu       sync.Mutex
	conn     Connection
	released bool

	closeOnce sync.Once
	done      chan struct{}
	fetches   sync.WaitGroup
}

// OpenStream starts tracking taskID. The machine is in Connecting by the
// time OpenStream returns; the connection itself is made in the background.
func OpenStream(ctx context.Context, backend Backend, taskID string, observer Observer) *Stream {
	if observer == nil {
		observer = NopObserver{}
	}

	s := &Stream{
		taskID:   taskID,
		backend:  backend,
		observer: &guardedObserver{inner: observer},
		log:      logger.Get().With("component", "stream", "task_id", taskID),
		done:     make(chan struct{}),
	}
	s.fetchCtx, s.fetchCancel = context.WithCancel(ctx)
	s.connCtx, s.connCancel = context.WithCancel(s.fetchCtx)
	s.machine = NewMachine(s.observer, streamEffects{s: s})

	s.machine.Dispatch(Requested{TaskID: taskID})
	go s.run()
	return s
}

// TaskID returns the tracked task id
func (s *Stream) TaskID() string { return s.taskID }

// State returns the machine state
func (s *Stream) State() State { return s.machine.State() }

// Task returns a snapshot of the tracked task
func (s *Stream) Task() models.Task { return s.machine.Task() }

// Done is closed once the connection has been released
func (s *Stream) Done() <-chan struct{} { return s.done }

// Wait blocks until the connection is released and any result fetch has
// finished.
func (s *Stream) Wait() {
	<-s.done
	s.fetches.Wait()
}

// Close retires the stream: the connection is released, a pending fetch is
// cancelled, and the observer receives no further callbacks. Safe to call
// more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.observer.retire()
		s.fetchCancel()
		s.release()
	})
}

func (s *Stream) run() {
	defer close(s.done)
	defer s.release()

	conn, err := s.backend.Connect(s.connCtx, s.taskID)
	if err != nil {
		if s.connCtx.Err() == nil {
			s.machine.Dispatch(TransportFailed{Err: err})
		}
		return
	}
	if !s.attach(conn) {
		return
	}
	s.machine.Dispatch(Opened{})

	for s.machine.State() == StateStreaming {
		frame, err := conn.Next(s.connCtx)
		if err != nil {
			if s.connCtx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrStreamClosed
			}
			s.machine.Dispatch(TransportFailed{Err: err})
			return
		}

		ev, err := decodeEvent(frame)
		if err != nil {
			s.machine.Dispatch(TransportFailed{Err: err})
			return
		}
		if ev == nil {
			s.log.Debug("skipping unknown event", "type", frame.Type)
			continue
		}
		s.machine.Dispatch(ev)
	}
}

// attach records conn unless the stream was already released, in which
// case conn is closed right away.
func (s *Stream) attach(conn Connection) bool {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		s.closeConn(conn)
		return false
	}
	s.conn = conn
	s.mu.Unlock()
	return true
}

func (s *Stream) release() {
	s.mu.Lock()
	s.released = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.connCancel()
	if conn != nil {
		s.closeConn(conn)
	}
}

func (s *Stream) closeConn(conn Connection) {
	if err := conn.Close(); err != nil {
		s.log.Debug("error closing event stream", "error", err)
	}
}

func (s *Stream) fetch(taskID string) {
	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()

		artifact, err := s.backend.FetchResult(s.fetchCtx, taskID)
		if err != nil {
			if s.fetchCtx.Err() != nil {
				return
			}
			s.log.Error("result fetch failed", "error", err)
			s.observer.OnMessage(userMessage("Failed to fetch result", err), LevelError)
			return
		}
		s.log.Info("result fetched", "topics", len(artifact.Metadata.GeneratedTopics))
		s.observer.OnResult(artifact)
	}()
}

type streamEffects struct {
	s *Stream
}

func (e streamEffects) TriggerFetch(taskID string) { e.s.fetch(taskID) }
func (e streamEffects) CloseStream() { e.s.release() }

// guardedObserver drops callbacks once its stream is retired.
type guardedObserver struct {
	inner   Observer
	retired atomic.Bool
}

func (g *guardedObserver) retire() { g.retired.Store(true) }

func (g *guardedObserver) OnMessage(text string, level Level) {
	if !g.retired.Load() {
		g.inner.OnMessage(text, level)
	}
}

func (g *guardedObserver) OnConnectionState(state State) {
	if !g.retired.Load() {
		g.inner.OnConnectionState(state)
	}
}

func (g *guardedObserver) OnProgress(snapshot ProgressSnapshot) {
	if !g.retired.Load() {
		g.inner.OnProgress(snapshot)
	}
}

func (g *guardedObserver) OnResult(artifact models.ResultArtifact) {
	if !g.retired.Load() {
		g.inner.OnResult(artifact)
	}
}

// userMessage prefers the friendly text carried by API errors.
func userMessage(prefix string, err error) string {
	var friendly interface{ UserMessage() string }
	if errors.As(err, &friendly) {
		return friendly.UserMessage()
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}
