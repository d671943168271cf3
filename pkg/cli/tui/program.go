package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/render"
	"newsletter-go/pkg/tracker"
)

// Options configures the interactive presenter
type Options struct {
	Backend       tracker.Backend
	Render        render.Func
	OutputDir     string
	SubmitOptions models.Options
	// Initial prefills the URL input
	Initial string
	// Save persists a fetched result and returns the written paths
	Save func(models.ResultArtifact) ([]string, error)
	// Copy writes text to the system clipboard
	Copy func(string) error
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	b := newBridge(p.Send)
	defer b.stop()

	session := tracker.NewSession(ctx, opts.Backend, b)
	defer session.Close()
	m.tracker = session

	_, err := p.Run()
	if err != nil {
		logger.Error("tui exited with error", "error", err)
	}
	return err
}

// Observer messages delivered to the model
type (
	messageMsg struct {
		text  string
		level tracker.Level
	}
	stateMsg    struct{ state tracker.State }
	progressMsg struct{ snapshot tracker.ProgressSnapshot }
	resultMsg   struct{ artifact models.ResultArtifact }
)

// bridge turns observer callbacks into program messages. Callbacks never
// block, even when they come from inside Update, and keep their order.
type bridge struct {
	send func(tea.Msg)

	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newBridge(send func(tea.Msg)) *bridge {
	b := &bridge{
		send:   send,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *bridge) push(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *bridge) run() {
	for {
		select {
		case <-b.done:
			return
		case <-b.notify:
		}

		for {
			b.mu.Lock()
			if len(b.queue) == 0 {
				b.mu.Unlock()
				break
			}
			msg := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()

			b.send(msg)
		}
	}
}

func (b *bridge) stop() {
	b.once.Do(func() { close(b.done) })
}

func (b *bridge) OnMessage(text string, level tracker.Level) {
	b.push(messageMsg{text: text, level: level})
}

func (b *bridge) OnConnectionState(state tracker.State) {
	b.push(stateMsg{state: state})
}

func (b *bridge) OnProgress(snapshot tracker.ProgressSnapshot) {
	b.push(progressMsg{snapshot: snapshot})
}

func (b *bridge) OnResult(artifact models.ResultArtifact) {
	b.push(resultMsg{artifact: artifact})
}
