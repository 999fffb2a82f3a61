// Package metrics exposes editor activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "switchboard"

// Collector holds the editor metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	openSessions prometheus.Gauge
	sessions     *prometheus.CounterVec
	saveDuration prometheus.Histogram
	savedStates  prometheus.Histogram
}

// New creates a Collector and registers its metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edit_commands_total",
				Help:      "Edit commands applied or rejected, by op.",
			},
			[]string{"op", "result"},
		),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Editor sessions currently open.",
		}),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_closed_total",
				Help:      "Editor sessions closed, by outcome.",
			},
			[]string{"outcome"},
		),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time from open to save of an editor session.",
			Buckets:   []float64{1, 10, 60, 300, 900, 3600},
		}),
		savedStates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saved_states",
			Help:      "Number of states in saved definitions.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	c.registry.MustRegister(c.commands, c.openSessions, c.sessions, c.saveDuration, c.savedStates)
	return c
}

// Registry returns the registry holding the editor metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks returns session hooks that record into the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOpen: func(_ context.Context, _ *domain.SessionEvent) {
			c.openSessions.Inc()
		},
		OnSave: func(_ context.Context, e *domain.SessionEvent) {
			c.openSessions.Dec()
			c.sessions.WithLabelValues("saved").Inc()
			c.saveDuration.Observe(e.Duration.Seconds())
			c.savedStates.Observe(float64(e.States))
		},
		OnDiscard: func(_ context.Context, _ *domain.SessionEvent) {
			c.openSessions.Dec()
			c.sessions.WithLabelValues("discarded").Inc()
		},
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			result := "ok"
			if e.Error != "" {
				result = "rejected"
			}
			op := e.Op
			if op == "" {
				op = "unknown"
			}
			c.commands.WithLabelValues(op, result).Inc()
		},
	}
}
