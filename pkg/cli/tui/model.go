package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"newsletter-go/pkg/batch"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/render"
	"newsletter-go/pkg/tracker"
)

// maxMessages bounds the message log shown under the input
const maxMessages = 6

// Tracker is the part of tracker.Session the model drives
type Tracker interface {
	Submit(ctx context.Context, urls []string, opts models.Options) (string, error)
	Cancel()
}

type focusArea int

const (
	focusInput focusArea = iota
	focusResult
)

type logLine struct {
	text  string
	level tracker.Level
}

// submitDoneMsg reports the end of a submission command
type submitDoneMsg struct {
	taskID string
	err    error
}

type savedMsg struct {
	paths []string
	err   error
}

type copiedMsg struct {
	what string
	err  error
}

// model is the single-screen presenter: URL input with live analysis,
// tracking status, and the fetched newsletter.
type model struct {
	ctx     context.Context
	opts    Options
	tracker Tracker

	input    textarea.Model
	analysis batch.Result
	spinner  spinner.Model
	progress progress.Model
	result   viewport.Model

	focus      focusArea
	submitting bool
	taskID     string
	state      tracker.State
	snapshot   *tracker.ProgressSnapshot
	artifact   *models.ResultArtifact
	messages   []logLine
	showHelp   bool
	width      int
	height     int
}

func newModel(ctx context.Context, opts Options) *model {
	if opts.Render == nil {
		opts.Render = render.Markdown
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	input := textarea.New()
	input.Placeholder = "Paste URLs here, one per line"
	input.ShowLineNumbers = true
	input.CharLimit = 0
	input.SetWidth(80)
	input.SetHeight(8)
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = infoStyle

	m := &model{
		ctx:      ctx,
		opts:     opts,
		input:    input,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		result:   viewport.New(80, 12),
		width:    80,
		height:   24,
	}
	if opts.Initial != "" {
		m.input.SetValue(opts.Initial)
	}
	m.analysis = batch.Analyze(m.input.Value())
	return m
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitDoneMsg:
		m.submitting = false
		if msg.err == nil {
			m.taskID = msg.taskID
		}
		return m, nil

	case messageMsg:
		m.addMessage(msg.text, msg.level)
		return m, nil

	case stateMsg:
		m.state = msg.state
		if msg.state == tracker.StateIdle {
			m.snapshot = nil
			m.taskID = ""
		}
		return m, nil

	case progressMsg:
		snap := msg.snapshot
		m.snapshot = &snap
		return m, nil

	case resultMsg:
		artifact := msg.artifact
		m.artifact = &artifact
		m.result.SetContent(artifact.Content)
		m.result.GotoTop()
		m.addMessage(fmt.Sprintf("Newsletter ready: %d topic(s). Tab to read, s to save, c to copy.",
			len(artifact.Metadata.GeneratedTopics)), tracker.LevelSuccess)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.addMessage("Save failed: "+msg.err.Error(), tracker.LevelError)
		} else {
			m.addMessage("Saved "+strings.Join(msg.paths, ", "), tracker.LevelSuccess)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.addMessage("Failed to copy to clipboard: "+msg.err.Error(), tracker.LevelError)
		} else {
			m.addMessage("Copied "+msg.what+" to clipboard", tracker.LevelSuccess)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s":
		return m, m.submit()
	case "ctrl+x":
		if m.tracker != nil && m.taskID != "" {
			m.tracker.Cancel()
		}
		return m, nil
	case "tab":
		m.toggleFocus()
		return m, nil
	case "esc":
		if m.focus == focusResult {
			m.toggleFocus()
			return m, nil
		}
		return m, tea.Quit
	}

	if m.focus == focusResult {
		return m.handleResultKey(msg)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.analysis = batch.Analyze(m.input.Value())
	}
	return m, cmd
}

func (m *model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "s":
		return m, m.save()
	case "c":
		return m, m.copy(false)
	case "C":
		return m, m.copy(true)
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m *model) toggleFocus() {
	if m.focus == focusInput && m.artifact != nil {
		m.focus = focusResult
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.showHelp = false
	m.input.Focus()
}

// submit sends the accepted URLs. An empty batch is still handed to the
// tracker, which rejects it locally with a warning.
func (m *model) submit() tea.Cmd {
	if m.submitting || m.tracker == nil {
		return nil
	}
	m.submitting = true
	m.artifact = nil
	m.snapshot = nil
	m.result.SetContent("")

	urls := append([]string(nil), m.analysis.Accepted...)
	ctx, t, opts := m.ctx, m.tracker, m.opts.SubmitOptions
	return func() tea.Msg {
		id, err := t.Submit(ctx, urls, opts)
		return submitDoneMsg{taskID: id, err: err}
	}
}

func (m *model) save() tea.Cmd {
	if m.artifact == nil {
		return nil
	}
	if m.opts.Save == nil {
		return func() tea.Msg { return savedMsg{err: errors.New("saving is not configured")} }
	}
	artifact, save := *m.artifact, m.opts.Save
	return func() tea.Msg {
		paths, err := save(artifact)
		return savedMsg{paths: paths, err: err}
	}
}

func (m *model) copy(asHTML bool) tea.Cmd {
	if m.artifact == nil {
		return nil
	}
	text, what := m.artifact.Content, "markdown"
	if asHTML {
		text, what = m.opts.Render(text), "HTML"
	}
	copyFn := m.opts.Copy
	return func() tea.Msg {
		return copiedMsg{what: what, err: copyFn(text)}
	}
}

func (m *model) addMessage(text string, level tracker.Level) {
	m.messages = append(m.messages, logLine{text: text, level: level})
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	contentWidth := max(width-4, 20)
	m.input.SetWidth(contentWidth)
	m.progress.Width = min(contentWidth, 60)
	m.result.Width = contentWidth
	// Whatever is left below the input, status and log lines
	m.result.Height = max(height-m.input.Height()-maxMessages-14, 5)
}

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder

	b.WriteString(renderTitle("Newsletter Generator"))
	b.WriteString(renderDivider(min(m.width, 80)))
	b.WriteString("\n")

	if m.focus == focusResult && m.artifact != nil {
		b.WriteString(renderResultHeader(*m.artifact))
		b.WriteString(m.result.View())
		b.WriteString("\n\n")
		if m.showHelp {
			b.WriteString(ResultHelpContent())
		} else {
			b.WriteString(helpStyle.Render("↑/↓ scroll • s save • c copy markdown • C copy HTML • ? help • tab/esc back"))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fieldLabelStyle.Render("URLs") + mutedStyle.Render("(one per line, # for comments)") + "\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(renderAnalysis(m.analysis))
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.progressLine())
	b.WriteString("\n\n")

	b.WriteString(renderMessages(m.messages))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(InputHelpLine(m.artifact != nil)))
	b.WriteString("\n")
	return b.String()
}

func (m *model) statusLine() string {
	label := fieldLabelStyle.Render("Status:")
	if m.submitting {
		return label + " " + m.spinner.View() + " submitting..."
	}
	if m.taskID == "" && m.state == tracker.StateIdle {
		return label + " " + mutedStyle.Render("idle")
	}

	state := renderState(m.state)
	if m.state.Live() {
		state = m.spinner.View() + " " + state
	}
	return fmt.Sprintf("%s %s  %s", label, state, mutedStyle.Render(m.taskID))
}

func (m *model) progressLine() string {
	if m.snapshot == nil {
		return mutedStyle.Render("No progress data yet")
	}
	if !m.snapshot.HasData {
		return mutedStyle.Render(m.snapshot.Text())
	}
	return m.progress.ViewAs(m.snapshot.Fraction()) + " " + m.snapshot.Text()
}
