package tracker

import "newsletter-go/pkg/models"

// Level classifies observer messages
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Observer receives read-only updates about the active task. Values passed
// in are copies.
type Observer interface {
	OnMessage(text string, level Level)
	OnConnectionState(state State)
	OnProgress(snapshot ProgressSnapshot)
	OnResult(artifact models.ResultArtifact)
}

// NopObserver ignores every callback. Embed it to implement only some.
type NopObserver struct{}

func (NopObserver) OnMessage(string, Level) {}
func (NopObserver) OnConnectionState(State) {}
func (NopObserver) OnProgress(ProgressSnapshot) {}
func (NopObserver) OnResult(models.ResultArtifact) {}
