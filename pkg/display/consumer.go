package display

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/buddy/internal/logging"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 100 * time.Millisecond

// Status reports whether the poll loop is armed.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPolling Status = "polling"
)

// Consumer owns the display state and is the relay's only reader.
type Consumer struct {
	queue    ports.RelayQueue
	surface  Surface
	interval time.Duration
	logger   *slog.Logger
	hooks    domain.Hooks
	clock    func() time.Time

	mu      sync.RWMutex
	current string
	updates int

	status atomic.Value
}

// Option configures the Consumer.
type Option func(*Consumer)

// WithSurface sets where replacements are rendered.
func WithSurface(s Surface) Option {
	return func(c *Consumer) {
		if s != nil {
			c.surface = s
		}
	}
}

// WithInterval sets the poll period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(c *Consumer) {
		c.hooks = hooks
	}
}

// NewConsumer creates a consumer reading from queue.
func NewConsumer(queue ports.RelayQueue, opts ...Option) *Consumer {
	c := &Consumer{
		queue:    queue,
		surface:  nopSurface{},
		interval: DefaultInterval,
		logger:   logging.NewNop(),
		clock:    time.Now,
	}
	c.status.Store(StatusIdle)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the poll period.
func (c *Consumer) Interval() time.Duration {
	return c.interval
}

// Tick performs one poll: it takes at most one item off the relay and, if there was one,
// replaces the display state with it and raises the surface.
// It never waits for an item.
func (c *Consumer) Tick(ctx context.Context) (string, bool) {
	item, ok, err := c.queue.TryPop(ctx)
	if err != nil {
		c.logger.Warn("relay poll failed", "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	c.mu.Lock()
	c.current = item
	c.updates++
	c.mu.Unlock()

	c.surface.Show(item)
	c.surface.Raise()

	c.logger.Debug("display updated", "size", len(item))
	c.hooks.EmitDisplay(ctx, &domain.DisplayEvent{
		EventBase: domain.EventBase{Timestamp: c.clock(), Type: domain.EventDisplay},
		Size:      len(item),
	})
	return item, true
}

// Run polls every interval until ctx is cancelled. Items still queued at that point are
// not drained.
func (c *Consumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.status.Store(StatusPolling)
	defer c.status.Store(StatusIdle)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Current returns the text on display.
func (c *Consumer) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Updates returns how many times the display has been replaced.
func (c *Consumer) Updates() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates
}

// Status reports whether Run is active.
func (c *Consumer) Status() Status {
	return c.status.Load().(Status)
}
