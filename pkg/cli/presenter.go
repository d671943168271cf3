package cli

import (
	"fmt"
	"io"
	"sync"

	"newsletter-go/pkg/cli/output"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/tracker"
)

// consolePresenter prints tracker updates as lines. Callbacks arrive from
// stream goroutines.
type consolePresenter struct {
	mu       sync.Mutex
	out      io.Writer
	lastLine string
	result   *models.ResultArtifact
}

func newConsolePresenter(out io.Writer) *consolePresenter {
	return &consolePresenter{out: out}
}

func (p *consolePresenter) OnMessage(text string, level tracker.Level) {
	var line string
	switch level {
	case tracker.LevelSuccess:
		line = output.Success(text)
	case tracker.LevelWarning:
		line = output.Warning(text)
	case tracker.LevelError:
		line = output.Error(text)
	default:
		line = output.Info(text)
	}
	p.println(line)
}

func (p *consolePresenter) OnConnectionState(state tracker.State) {
	switch state {
	case tracker.StateConnecting, tracker.StateStreaming:
		p.println(output.Muted("  stream: " + state.String()))
	}
}

func (p *consolePresenter) OnProgress(snap tracker.ProgressSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("  [%s] %s", snap.Status, snap.Text())
	if line == p.lastLine {
		return
	}
	p.lastLine = line
	fmt.Fprintln(p.out, line)
}

func (p *consolePresenter) OnResult(artifact models.ResultArtifact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = &artifact
}

// Result returns the fetched artifact, if any
func (p *consolePresenter) Result() (models.ResultArtifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result == nil {
		return models.ResultArtifact{}, false
	}
	return *p.result, true
}

func (p *consolePresenter) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}
