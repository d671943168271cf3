package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"newsletter-go/pkg/models"
	"newsletter-go/pkg/sse"
)

type frameOrErr struct {
	frame sse.Event
	err   error
}

type fakeConn struct {
	frames chan frameOrErr
	closed atomic.Int32
	once   sync.Once
	stop   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan frameOrErr, 16), stop: make(chan struct{})}
}

func (c *fakeConn) Next(ctx context.Context) (sse.Event, error) {
	select {
	case f := <-c.frames:
		return f.frame, f.err
	case <-c.stop:
		return sse.Event{}, io.ErrClosedPipe
	case <-ctx.Done():
		return sse.Event{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closed.Add(1)
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *fakeConn) send(eventType, data string) {
	c.frames <- frameOrErr{frame: sse.Event{Type: eventType, Data: []byte(data)}}
}

func (c *fakeConn) fail(err error) {
	c.frames <- frameOrErr{err: err}
}

type fakeBackend struct {
	mu          sync.Mutex
	conns       map[string]*fakeConn
	connectErr  error
	submitID    string
	submitErr   error
	submits     int
	connects    int
	fetches     map[string]int
	fetchErr    error
	artifact    models.ResultArtifact
	fetchGate   chan struct{}
	lastURLs    []string
	lastOptions models.Options
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		conns:   make(map[string]*fakeConn),
		fetches: make(map[string]int),
	}
}

func (b *fakeBackend) conn(taskID string) *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[taskID]
	if !ok {
		c = newFakeConn()
		b.conns[taskID] = c
	}
	return c
}

// reset swaps in a fresh connection for the next Connect to taskID
func (b *fakeBackend) reset(taskID string) *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := newFakeConn()
	b.conns[taskID] = c
	return c
}

func (b *fakeBackend) Submit(_ context.Context, urls []string, opts models.Options) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits++
	b.lastURLs = urls
	b.lastOptions = opts
	if b.submitErr != nil {
		return "", b.submitErr
	}
	id := b.submitID
	if id == "" {
		id = fmt.Sprintf("task-%d", b.submits)
	}
	return id, nil
}

func (b *fakeBackend) Connect(_ context.Context, taskID string) (Connection, error) {
	b.mu.Lock()
	b.connects++
	err := b.connectErr
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return b.conn(taskID), nil
}

func (b *fakeBackend) FetchResult(ctx context.Context, taskID string) (models.ResultArtifact, error) {
	b.mu.Lock()
	b.fetches[taskID]++
	gate := b.fetchGate
	err := b.fetchErr
	artifact := b.artifact
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.ResultArtifact{}, ctx.Err()
		}
	}
	if err != nil {
		return models.ResultArtifact{}, err
	}
	artifact.TaskID = taskID
	return artifact, nil
}

func (b *fakeBackend) fetchCount(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[taskID]
}

func (b *fakeBackend) counts() (submits, connects int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits, b.connects
}

type message struct {
	Text  string
	Level Level
}

type recordingObserver struct {
	mu        sync.Mutex
	messages  []message
	states    []State
	snapshots []ProgressSnapshot
	results   []models.ResultArtifact
}

func (o *recordingObserver) OnMessage(text string, level Level) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, message{text, level})
}

func (o *recordingObserver) OnConnectionState(state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) OnProgress(snapshot ProgressSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, snapshot)
}

func (o *recordingObserver) OnResult(artifact models.ResultArtifact) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, artifact)
}

func (o *recordingObserver) Messages() []message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]message(nil), o.messages...)
}

func (o *recordingObserver) States() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]State(nil), o.states...)
}

func (o *recordingObserver) Snapshots() []ProgressSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ProgressSnapshot(nil), o.snapshots...)
}

func (o *recordingObserver) Results() []models.ResultArtifact {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.ResultArtifact(nil), o.results...)
}

func (o *recordingObserver) hasLevel(level Level) bool {
	for _, m := range o.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

type recordingEffects struct {
	mu      sync.Mutex
	fetches []string
	closes  int
}

func (e *recordingEffects) TriggerFetch(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetches = append(e.fetches, taskID)
}

func (e *recordingEffects) CloseStream() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes++
}

var errBoom = errors.New("boom")
