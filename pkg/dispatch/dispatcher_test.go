package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/buddy/pkg/adapters/memory"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// MockQueue records pushes and can be told to fail.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Push(ctx context.Context, item string) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockQueue) TryPop(ctx context.Context) (string, bool, error) {
	return "", false, nil
}

func (m *MockQueue) Len(ctx context.Context) (int, error) {
	return 0, nil
}

func TestDispatch_Table(t *testing.T) {
	text := "One. Two. Three. Four."
	markup := `<a href="http://x">t</a><b href="y">bad</b>`

	tests := []struct {
		wire       string
		wantResult string
		wantStatus string
	}{
		{"summarizePage", "One. Two. Three.", StatusSummary},
		{"provideDiscussionSummary", "One. Two. Three.", StatusSummary},
		{"showAllLinks", "http://x", StatusLinks},
		{"sendPlainText", text, StatusReceived},
		{"translateToMandarin", transform.MandarinMarker + text, StatusTranslated},
		{"", text, StatusReceived},
		{"somethingElse", text, StatusReceived},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("action=%q", tt.wire), func(t *testing.T) {
			q := memory.NewQueue()
			d := New(q)

			result, status := d.Dispatch(context.Background(), domain.NewPayload(tt.wire, text, markup))
			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantStatus, status)

			n, _ := q.Len(context.Background())
			require.Equal(t, 1, n, "exactly one result enqueued")
			queued, _, _ := q.TryPop(context.Background())
			assert.Equal(t, result, queued)
		})
	}
}

func TestDispatch_UnknownIsIdentity(t *testing.T) {
	d := New(memory.NewQueue())
	for _, text := range []string{"", "x", "A. B. C. D.", "<a href='z'>"} {
		result, _ := d.Dispatch(context.Background(), domain.Payload{Action: domain.ActionUnknown, Text: text})
		assert.Equal(t, transform.Identity(text), result)
	}
}

func TestDispatch_OutOfRangeActionFallsBack(t *testing.T) {
	d := New(memory.NewQueue())
	result, status := d.Dispatch(context.Background(), domain.Payload{Action: domain.ActionID(42), Text: "raw"})
	assert.Equal(t, "raw", result)
	assert.Equal(t, StatusReceived, status)
}

func TestDispatch_EveryActionRouted(t *testing.T) {
	for _, a := range domain.Actions() {
		assert.NotNil(t, routes[a].apply, "action %s has no transform", a)
		assert.NotEmpty(t, routes[a].status, "action %s has no status", a)
		assert.Equal(t, routes[a].status, Status(a))
	}
}

func TestDispatch_TransformPanicDegrades(t *testing.T) {
	q := memory.NewQueue()
	var events []*domain.DispatchEvent
	d := New(q,
		WithTransform(domain.ActionShowAllLinks, func(domain.Payload) string { panic("pathological markup") }),
		WithHooks(domain.Hooks{OnDispatch: func(_ context.Context, e *domain.DispatchEvent) { events = append(events, e) }}),
	)

	result, status := d.Dispatch(context.Background(), domain.NewPayload("showAllLinks", "", "<a"))
	assert.Equal(t, "", result)
	assert.Equal(t, StatusReceived, status)

	n, _ := q.Len(context.Background())
	assert.Equal(t, 1, n)

	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, domain.ErrTransformFailed)
	assert.Equal(t, domain.ActionShowAllLinks, events[0].Action)
}

func TestDispatch_PushFailureStillAcknowledges(t *testing.T) {
	q := new(MockQueue)
	q.On("Push", "hello").Return(errors.New("redis down")).Once()
	d := New(q)

	result, status := d.Dispatch(context.Background(), domain.NewPayload("sendPlainText", "hello", ""))
	assert.Equal(t, "hello", result)
	assert.Equal(t, StatusReceived, status)
	q.AssertExpectations(t)
}

func TestDispatch_CancelledContextStillEnqueues(t *testing.T) {
	q := memory.NewQueue()
	d := New(q)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Dispatch(ctx, domain.NewPayload("sendPlainText", "late", ""))
	item, ok, _ := q.TryPop(context.Background())
	require.True(t, ok)
	assert.Equal(t, "late", item)
}

func TestDispatch_ConcurrentProducers(t *testing.T) {
	const calls = 200
	q := memory.NewQueue()
	d := New(q)

	var g errgroup.Group
	for i := 0; i < calls; i++ {
		g.Go(func() error {
			d.Dispatch(context.Background(), domain.NewPayload("sendPlainText", fmt.Sprintf("msg-%d", i), ""))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, n)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ab", preview("abc", 2))
	assert.Equal(t, "çã", preview("çãõ", 2))
}
