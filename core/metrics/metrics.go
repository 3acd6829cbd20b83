// Package metrics holds the Prometheus collectors of the bot and the small
// HTTP server that exposes them.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "studybot"

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// Collector groups every metric the bot records.
type Collector struct {
	registry *prometheus.Registry

	Updates        *prometheus.CounterVec
	Handled        *prometheus.CounterVec
	MessagesSent   prometheus.Counter
	ProviderCalls  *prometheus.CounterVec
	ProviderTiming *prometheus.HistogramVec
	NotesSaved     prometheus.Counter
	Reminders      *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates received, by kind.",
		}, []string{"kind"}),
		Handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handled_total",
			Help:      "Processed updates, by kind and status.",
		}, []string{"kind", "status"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent back to users.",
		}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "External provider calls, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "External provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		NotesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_saved_total",
			Help:      "Notes persisted.",
		}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Inactivity reminders, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Updates,
		c.Handled,
		c.MessagesSent,
		c.ProviderCalls,
		c.ProviderTiming,
		c.NotesSaved,
		c.Reminders,
	)
	return c
}

// Default returns the process-wide collector.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector()
	})
	return defaultCollector
}

// Registry returns the registry backing c.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveProvider records one provider call.
func (c *Collector) ObserveProvider(provider, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.ProviderCalls.WithLabelValues(provider, outcome).Inc()
	c.ProviderTiming.WithLabelValues(provider).Observe(took.Seconds())
}
