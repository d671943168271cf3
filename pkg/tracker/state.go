// Package tracker follows a submitted task to completion over its event
// stream.
package tracker

// State is the connection state of a task stream
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the task reached a final state. Disconnected is
// not terminal: the task may still be running server-side.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Live reports whether a stream in this state still holds a connection
func (s State) Live() bool {
	return s == StateConnecting || s == StateStreaming
}
