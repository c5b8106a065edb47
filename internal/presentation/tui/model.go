package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/buddy/pkg/display"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RaiseDuration is how long the window stays highlighted after new content arrives.
const RaiseDuration = 400 * time.Millisecond

const (
	defaultWidth  = 60
	defaultHeight = 20
	// chrome is the rows taken by header, border and footer.
	chrome = 4
)

type tickMsg time.Time

type releaseMsg struct{ seq int }

// Model is the bubbletea front end of a display.Consumer.
// Its tick loop is the consumer's poll loop: one tea.Tick per interval, re-armed on every tick.
type Model struct {
	ctx      context.Context
	consumer *display.Consumer
	viewport viewport.Model
	styles   styles

	content  string
	raised   bool
	raiseSeq int
	footer   string
	width    int
}

// Option configures the Model.
type Option func(*Model)

// WithFooter sets the status text under the content (e.g. the listen address).
func WithFooter(text string) Option {
	return func(m *Model) {
		m.footer = text
	}
}

// NewModel creates a TUI over consumer. ctx bounds relay reads.
func NewModel(ctx context.Context, consumer *display.Consumer, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		consumer: consumer,
		viewport: viewport.New(defaultWidth, defaultHeight),
		styles:   defaultStyles(),
		width:    defaultWidth,
		footer:   "waiting for the extension",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func tickEvery(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = display.DefaultInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func releaseAfter(seq int) tea.Cmd {
	return tea.Tick(RaiseDuration, func(time.Time) tea.Msg {
		return releaseMsg{seq: seq}
	})
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(display.Title), tickEvery(m.consumer.Interval()))
}

// Update handles poll ticks, raise release, resizing and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		cmds := []tea.Cmd{tickEvery(m.consumer.Interval())}
		if content, ok := m.consumer.Tick(m.ctx); ok {
			m.content = content
			m.viewport.SetContent(m.wrap(content))
			m.viewport.GotoTop()
			m.raised = true
			m.raiseSeq++
			cmds = append(cmds, tea.SetWindowTitle("● "+display.Title), releaseAfter(m.raiseSeq))
		}
		return m, tea.Batch(cmds...)
	case releaseMsg:
		// A newer update owns the highlight.
		if msg.seq != m.raiseSeq {
			return m, nil
		}
		m.raised = false
		return m, tea.SetWindowTitle(display.Title)
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-2, 10)
		m.viewport.Width = m.width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.viewport.SetContent(m.wrap(m.content))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the header, the bordered content and the footer.
func (m Model) View() string {
	box := m.styles.box
	if m.raised {
		box = m.styles.raisedBox
	}
	footer := fmt.Sprintf("%s · %d update(s) · q to quit", m.footer, m.consumer.Updates())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.title.Render(display.Title),
		box.Render(m.viewport.View()),
		m.styles.footer.Render(footer),
	)
}

// Raised reports whether the highlight is active.
func (m Model) Raised() bool {
	return m.raised
}

func (m Model) wrap(content string) string {
	return lipgloss.NewStyle().Width(m.width).Render(display.Sanitize(content))
}

type styles struct {
	title     lipgloss.Style
	box       lipgloss.Style
	raisedBox lipgloss.Style
	footer    lipgloss.Style
}

func defaultStyles() styles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444"))
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#818cf8")),
		box:       box,
		raisedBox: box.BorderForeground(lipgloss.Color("#f472b6")),
		footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")),
	}
}
