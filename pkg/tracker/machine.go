package tracker

import (
	"fmt"
	"sync"

	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"
)

// Effects are the side effects the machine asks its owner to perform.
type Effects interface {
	// TriggerFetch starts retrieval of the result for a completed task.
	TriggerFetch(taskID string)
	// CloseStream releases the underlying connection.
	CloseStream()
}

type nopEffects struct{}

func (nopEffects) TriggerFetch(string) {}
func (nopEffects) CloseStream() {}

// Machine is the task-stream state machine. All input goes through
// Dispatch; observer callbacks and effects run after the internal lock is
// released, in the order they were produced.
type Machine struct {
	mu       sync.Mutex
	state    State
	task     models.Task
	fetched  bool
	observer Observer
	effects  Effects
	log      logger.Logger
}

// NewMachine creates a machine in the Idle state
func NewMachine(observer Observer, effects Effects) *Machine {
	if observer == nil {
		observer = NopObserver{}
	}
	if effects == nil {
		effects = nopEffects{}
	}
	return &Machine{
		state:    StateIdle,
		observer: observer,
		effects:  effects,
		log:      logger.Get().With("component", "tracker"),
	}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Task returns a copy of the tracked task
func (m *Machine) Task() models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task.Clone()
}

// Dispatch applies one event
func (m *Machine) Dispatch(ev Event) {
	m.mu.Lock()
	pending := m.transition(ev)
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// transition must be called with m.mu held. It returns the callbacks to run
// once the lock is released.
func (m *Machine) transition(ev Event) []func() {
	var out []func()

	switch e := ev.(type) {
	case Requested:
		if m.state != StateIdle {
			m.log.Warn("ignoring stream request", "state", m.state, "task_id", e.TaskID)
			return nil
		}
		m.task = models.Task{ID: e.TaskID, Status: models.TaskStatusPending}
		out = append(out, m.enter(StateConnecting)...)

	case Opened:
		if m.state != StateConnecting {
			return nil
		}
		out = append(out, m.enter(StateStreaming)...)

	case StatusReceived:
		if m.state != StateStreaming {
			m.log.Debug("ignoring status event", "state", m.state, "status", e.Payload.Status)
			return nil
		}
		out = append(out, m.applyStatus(e.Payload, false)...)

	case EndReceived:
		switch {
		case m.state.Terminal():
			// Already handled through a status event; just make sure the
			// connection is gone.
			out = append(out, m.effects.CloseStream)
		case m.state == StateStreaming:
			out = append(out, m.applyStatus(e.Payload, true)...)
		default:
			m.log.Debug("ignoring end event", "state", m.state)
		}

	case TransportFailed:
		if !m.state.Live() {
			return nil
		}
		m.log.Warn("event stream failed", "task_id", m.task.ID, "error", e.Err)
		msg := fmt.Sprintf("Connection lost: %v. The task may still be running; reconnect to resume tracking.", e.Err)
		out = append(out, m.notifyMessage(msg, LevelError))
		out = append(out, m.enter(StateDisconnected)...)
		out = append(out, m.effects.CloseStream)
	}

	return out
}

func (m *Machine) applyStatus(p models.StatusPayload, end bool) []func() {
	if p.TaskID != "" && p.TaskID != m.task.ID {
		m.log.Warn("ignoring event for another task", "task_id", m.task.ID, "event_task_id", p.TaskID)
		if !end {
			return nil
		}
		return m.closeEarly()
	}

	m.task.Status = p.Status
	m.task.Error = p.Error
	if p.Progress != nil {
		progress := *p.Progress
		m.task.Progress = &progress
	}

	var out []func()
	switch p.Status {
	case models.TaskStatusCompleted:
		out = append(out, m.notifyProgress())
		out = append(out, m.notifyMessage("Newsletter generated. Fetching result...", LevelSuccess))
		out = append(out, m.enter(StateCompleted)...)
		if !m.fetched {
			m.fetched = true
			taskID := m.task.ID
			out = append(out, func() { m.effects.TriggerFetch(taskID) })
		}
		out = append(out, m.effects.CloseStream)

	case models.TaskStatusFailed:
		msg := p.Error
		if msg == "" {
			msg = "Newsletter generation failed."
		}
		out = append(out, m.notifyMessage(msg, LevelError))
		out = append(out, m.enter(StateFailed)...)
		out = append(out, m.effects.CloseStream)

	default:
		out = append(out, m.notifyProgress())
		if end {
			out = append(out, m.closeEarly()...)
		}
	}
	return out
}

// closeEarly handles an end frame that leaves the tracked task unfinished.
// The end frame always closes the stream.
func (m *Machine) closeEarly() []func() {
	out := []func(){m.notifyMessage("Server closed the event stream before the task finished.", LevelWarning)}
	out = append(out, m.enter(StateDisconnected)...)
	return append(out, m.effects.CloseStream)
}

func (m *Machine) enter(next State) []func() {
	if m.state == next {
		return nil
	}
	m.log.Debug("state transition", "task_id", m.task.ID, "from", m.state, "to", next)
	m.state = next
	return []func(){func() { m.observer.OnConnectionState(next) }}
}

func (m *Machine) notifyProgress() func() {
	snap := NewProgressSnapshot(m.task.ID, m.task.Status, m.task.Progress)
	return func() { m.observer.OnProgress(snap) }
}

func (m *Machine) notifyMessage(text string, level Level) func() {
	return func() { m.observer.OnMessage(text, level) }
}
