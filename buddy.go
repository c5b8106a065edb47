package buddy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/buddy/internal/config"
	"github.com/aretw0/buddy/internal/logging"
	"github.com/aretw0/buddy/internal/metrics"
	httpAdapter "github.com/aretw0/buddy/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/buddy/pkg/adapters/mcp"
	"github.com/aretw0/buddy/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/buddy/pkg/adapters/redis"
	"github.com/aretw0/buddy/pkg/dispatch"
	"github.com/aretw0/buddy/pkg/display"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// ConsumerLockTTL bounds how long a crashed display keeps a shared relay locked.
const ConsumerLockTTL = 10 * time.Second

// App wires one relay queue to its producers (dispatcher, ingress adapters) and its single
// consumer. Build it once per process; everything it hands out shares the same queue.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	hooks   domain.Hooks
	surface display.Surface

	queue      ports.RelayQueue
	locker     ports.DistributedLocker
	closeQueue func() error

	metrics    *metrics.Metrics
	dispatcher *dispatch.Dispatcher
	consumer   *display.Consumer
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithQueue injects the relay queue, bypassing the configured backend.
func WithQueue(q ports.RelayQueue) Option {
	return func(a *App) {
		a.queue = q
	}
}

// WithSurface sets where the consumer renders. The TUI leaves it unset and reads the
// consumer state itself.
func WithSurface(s display.Surface) Option {
	return func(a *App) {
		a.surface = s
	}
}

// WithHooks registers observability hooks in addition to the metrics hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(a *App) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// New builds the App for cfg. With the redis backend the server is pinged so a bad
// address fails here rather than on the first request.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:        cfg,
		logger:     logging.NewNop(),
		closeQueue: func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.queue == nil {
		q, closeFn, err := openQueue(ctx, cfg.Relay)
		if err != nil {
			return nil, err
		}
		a.queue, a.closeQueue = q, closeFn
	}
	if rq, ok := a.queue.(*redisAdapter.Queue); ok {
		a.locker = rq.Locker()
	}
	a.logger.Debug("Relay queue ready", "backend", cfg.Relay.Backend)

	a.metrics = metrics.New(a.queue)
	hooks := a.metrics.Hooks().Merge(a.hooks)

	a.dispatcher = dispatch.New(a.queue,
		dispatch.WithLogger(a.logger),
		dispatch.WithHooks(hooks),
	)

	consumerOpts := []display.Option{
		display.WithInterval(cfg.Display.Interval),
		display.WithLogger(a.logger),
		display.WithHooks(hooks),
	}
	if a.surface != nil {
		consumerOpts = append(consumerOpts, display.WithSurface(a.surface))
	}
	a.consumer = display.NewConsumer(a.queue, consumerOpts...)
	return a, nil
}

func openQueue(ctx context.Context, cfg config.RelayConfig) (ports.RelayQueue, func() error, error) {
	switch cfg.Backend {
	case config.RelayMemory, "":
		return memory.NewQueue(), func() error { return nil }, nil
	case config.RelayRedis:
		var opts []redisAdapter.QueueOption
		if cfg.Redis.Key != "" {
			opts = append(opts, redisAdapter.WithKey(cfg.Redis.Key))
		}
		q := redisAdapter.NewQueue(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := q.Ping(ctx); err != nil {
			q.Close()
			return nil, nil, fmt.Errorf("relay: redis %s: %w", cfg.Redis.Addr, err)
		}
		return q, q.Close, nil
	default:
		return nil, nil, fmt.Errorf("relay: unknown backend %q", cfg.Backend)
	}
}

// Queue returns the shared relay queue.
func (a *App) Queue() ports.RelayQueue { return a.queue }

// Dispatcher returns the dispatcher used by every ingress adapter.
func (a *App) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Consumer returns the single display consumer.
func (a *App) Consumer() *display.Consumer { return a.consumer }

// Metrics returns the Prometheus collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Handler builds the HTTP ingress from the server config.
func (a *App) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(a.logger),
		httpAdapter.WithIngressPath(a.cfg.Server.Path),
		httpAdapter.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
		httpAdapter.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
		httpAdapter.WithVersion(Version),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, httpAdapter.WithMetrics(a.cfg.Metrics.Path, a.metrics.Handler()))
	}
	return httpAdapter.NewHandler(a.dispatcher, opts...)
}

// MCPServer builds the MCP ingress sharing the same dispatcher and queue.
func (a *App) MCPServer() *mcpAdapter.Server {
	return mcpAdapter.NewServer(a.dispatcher,
		mcpAdapter.WithQueue(a.queue),
		mcpAdapter.WithLogger(a.logger),
		mcpAdapter.WithVersion(Version),
	)
}

// Listen opens the configured ingress address.
func (a *App) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.cfg.Server.Address())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.cfg.Server.Address(), err)
	}
	return ln, nil
}

// Serve runs the HTTP ingress on ln until ctx is cancelled.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
	return httpAdapter.Serve(ctx, srv, ln, a.logger)
}

// AcquireConsumer blocks until this process may consume the relay. Only shared (redis)
// relays need the lock; for an in-process relay it returns ctx unchanged.
// The consumer must run under the returned context, which ends early if the lock is lost
// (see ConsumerLost). The returned release func must be called when the display stops.
func (a *App) AcquireConsumer(ctx context.Context) (context.Context, func(), error) {
	if a.locker == nil {
		return ctx, func() {}, nil
	}
	a.logger.Info("Waiting for the display lock")
	held, unlock, err := a.locker.Lock(ctx, "consumer", ConsumerLockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("display lock: %w", err)
	}
	a.logger.Debug("Display lock acquired")
	return held, func() {
		if err := unlock(context.Background()); err != nil {
			a.logger.Warn("Display lock release failed", "error", err)
		}
	}, nil
}

// ConsumerLost reports why a display acquired with AcquireConsumer had to stop early.
// It returns nil unless the consumer lock was lost.
func ConsumerLost(held context.Context) error {
	if cause := context.Cause(held); errors.Is(cause, ports.ErrLockLost) {
		return fmt.Errorf("display: %w", cause)
	}
	return nil
}

// RunConsumer holds the consumer lock and runs the poll loop until ctx is cancelled.
// Losing the lock stops the loop with an error so two displays never share a relay.
func (a *App) RunConsumer(ctx context.Context) error {
	held, release, err := a.AcquireConsumer(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer release()
	if err := a.consumer.Run(held); err != nil {
		return err
	}
	if err := ConsumerLost(held); err != nil {
		a.logger.Error("Display lock lost", "error", err)
		return err
	}
	return nil
}

// Run serves the ingress and runs the consumer's poll loop until ctx is cancelled or
// either side fails. Both stop together.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Serve(ctx, ln) })
	g.Go(func() error { return a.RunConsumer(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the relay backend.
func (a *App) Close() error {
	return a.closeQueue()
}
