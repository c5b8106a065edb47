package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/buddy/pkg/adapters/memory"
	"github.com/aretw0/buddy/pkg/display"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *memory.Queue) {
	t.Helper()
	q := memory.NewQueue()
	c := display.NewConsumer(q, display.WithInterval(10*time.Millisecond))
	return NewModel(context.Background(), c, WithFooter("127.0.0.1:5000")), q
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_TickShowsOneItemAndRaises(t *testing.T) {
	m, q := newTestModel(t)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "first result"))
	require.NoError(t, q.Push(ctx, "second result"))

	m, cmd := update(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd, "tick is re-armed")
	assert.True(t, m.Raised())
	view := m.View()
	assert.Contains(t, view, "first result")
	assert.NotContains(t, view, "second result")

	m, _ = update(t, m, tickMsg(time.Now()))
	view = m.View()
	assert.Contains(t, view, "second result")
	assert.NotContains(t, view, "first result")
	assert.Contains(t, view, "2 update(s)")
}

func TestModel_EmptyTickKeepsContent(t *testing.T) {
	m, q := newTestModel(t)
	require.NoError(t, q.Push(context.Background(), "only"))

	m, _ = update(t, m, tickMsg(time.Now()))
	m, _ = update(t, m, releaseMsg{seq: m.raiseSeq})
	m, cmd := update(t, m, tickMsg(time.Now()))

	assert.NotNil(t, cmd)
	assert.False(t, m.Raised())
	assert.Contains(t, m.View(), "only")
}

func TestModel_StaleReleaseIgnored(t *testing.T) {
	m, q := newTestModel(t)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Push(ctx, "b"))

	m, _ = update(t, m, tickMsg(time.Now()))
	stale := m.raiseSeq
	m, _ = update(t, m, tickMsg(time.Now()))

	m, _ = update(t, m, releaseMsg{seq: stale})
	assert.True(t, m.Raised(), "release from the first raise must not clear the second")

	m, _ = update(t, m, releaseMsg{seq: m.raiseSeq})
	assert.False(t, m.Raised())
}

func TestModel_ResizeRewraps(t *testing.T) {
	m, q := newTestModel(t)
	require.NoError(t, q.Push(context.Background(), strings.Repeat("word ", 40)))
	m, _ = update(t, m, tickMsg(time.Now()))

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 12})
	assert.Equal(t, 28, m.viewport.Width)
	assert.Equal(t, 8, m.viewport.Height)
	for _, line := range strings.Split(m.viewport.View(), "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 28)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		m, _ := newTestModel(t)
		_, cmd := update(t, m, key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_InitStartsLoop(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|__/")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("# Title\n\nSome *text*.")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
