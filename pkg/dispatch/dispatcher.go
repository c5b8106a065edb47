package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/buddy/internal/logging"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
	"github.com/aretw0/buddy/pkg/transform"
)

// Acknowledgements returned to the caller.
const (
	StatusSummary    = "Summary provided"
	StatusLinks      = "Links extracted"
	StatusTranslated = "Text translated to Mandarin"
	// StatusReceived is the generic acknowledgement, also used when a transform fails.
	StatusReceived = "Text received by Flask server"
)

// TransformFunc derives the relayed text from a payload.
type TransformFunc func(p domain.Payload) string

type route struct {
	apply  TransformFunc
	status string
}

func onText(fn func(string) string) TransformFunc {
	return func(p domain.Payload) string { return fn(p.Text) }
}

func onMarkup(fn func(string) string) TransformFunc {
	return func(p domain.Payload) string { return fn(p.Markup) }
}

var routes = [...]route{
	domain.ActionUnknown:             {apply: onText(transform.Identity), status: StatusReceived},
	domain.ActionSendPlainText:       {apply: onText(transform.Identity), status: StatusReceived},
	domain.ActionTranslateToMandarin: {apply: onText(transform.TranslateStub), status: StatusTranslated},
	domain.ActionSummarizeSelection:  {apply: onText(transform.Summarize), status: StatusSummary},
	domain.ActionSummarizePage:       {apply: onText(transform.Summarize), status: StatusSummary},
	domain.ActionShowAllLinks:        {apply: onMarkup(transform.ExtractLinks), status: StatusLinks},
}

// Every action has exactly one route.
var (
	_ [len(routes) - int(domain.ActionCount)]struct{}
	_ [int(domain.ActionCount) - len(routes)]struct{}
)

// Dispatcher implements ports.Dispatcher.
// It is safe for concurrent use; the queue is its only shared state.
type Dispatcher struct {
	queue  ports.RelayQueue
	routes [len(routes)]route
	logger *slog.Logger
	hooks  domain.Hooks
	clock  func() time.Time
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithTransform replaces the transform used for one action; its status is kept.
func WithTransform(action domain.ActionID, fn TransformFunc) Option {
	return func(d *Dispatcher) {
		if action.Valid() && fn != nil {
			d.routes[action].apply = fn
		}
	}
}

// WithClock allows tests to control durations.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New creates a Dispatcher that relays results onto queue.
func New(queue ports.RelayQueue, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  queue,
		routes: routes,
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch transforms p according to its action, pushes the result onto the relay exactly
// once and returns the result with the acknowledgement for the caller.
//
// A panicking transform degrades to an empty result and the generic acknowledgement.
// A relay error is logged; the caller still gets its acknowledgement.
func (d *Dispatcher) Dispatch(ctx context.Context, p domain.Payload) (domain.Result, string) {
	start := d.clock()
	action := p.Action
	if !action.Valid() {
		action = domain.ActionUnknown
	}
	r := d.routes[action]

	result, err := safeApply(r.apply, p)
	status := r.status
	if err != nil {
		d.logger.Warn("transform failed, relaying empty result", "action", action, "error", err)
		result, status = "", StatusReceived
	}

	// The push must happen even if the caller has already gone away.
	if perr := d.queue.Push(context.WithoutCancel(ctx), result); perr != nil {
		d.logger.Error("relay push failed", "action", action, "error", perr)
	}

	d.logger.Debug("payload dispatched",
		"action", action,
		"status", status,
		"text_preview", preview(p.Text, 100),
		"result_size", len(result),
	)
	d.hooks.EmitDispatch(ctx, &domain.DispatchEvent{
		EventBase:  domain.EventBase{Timestamp: start, Type: domain.EventDispatch},
		Action:     action,
		Status:     status,
		InputSize:  len(p.Text) + len(p.Markup),
		ResultSize: len(result),
		Duration:   d.clock().Sub(start),
		Err:        err,
	})
	return result, status
}

// Status returns the acknowledgement configured for action.
func Status(action domain.ActionID) string {
	if !action.Valid() {
		action = domain.ActionUnknown
	}
	return routes[action].status
}

func safeApply(fn TransformFunc, p domain.Payload) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", domain.ErrTransformFailed, rec)
		}
	}()
	return fn(p), nil
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	count := 0
	for pos := range s {
		if count == n {
			return s[:pos]
		}
		count++
	}
	return s
}
