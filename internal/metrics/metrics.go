package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist (tests, embedded use).
type Metrics struct {
	registry *prometheus.Registry

	dispatches     *prometheus.CounterVec
	dispatchTime   *prometheus.HistogramVec
	failures       prometheus.Counter
	displayUpdates prometheus.Counter
}

// New creates the collectors. When queue is not nil its depth is exported as a gauge.
func New(queue ports.RelayQueue) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buddy_dispatch_total",
				Help: "Total number of dispatched payloads",
			},
			[]string{"action"},
		),
		dispatchTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buddy_dispatch_duration_seconds",
				Help:    "Duration of transform plus relay push",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"action"},
		),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buddy_transform_failures_total",
			Help: "Transforms that failed and degraded to an empty result",
		}),
		displayUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buddy_display_updates_total",
			Help: "Times the display content was replaced",
		}),
	}
	m.registry.MustRegister(
		m.dispatches,
		m.dispatchTime,
		m.failures,
		m.displayUpdates,
		collectors.NewGoCollector(),
	)
	if queue != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "buddy_relay_depth",
				Help: "Items waiting in the relay queue",
			},
			func() float64 {
				n, err := queue.Len(context.Background())
				if err != nil {
					return -1
				}
				return float64(n)
			},
		))
	}
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			m.dispatches.WithLabelValues(e.Action.String()).Inc()
			m.dispatchTime.WithLabelValues(e.Action.String()).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.failures.Inc()
			}
		},
		OnDisplay: func(context.Context, *domain.DisplayEvent) {
			m.displayUpdates.Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
