// Package metrics provides Prometheus metrics for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	EventsTotal          *prometheus.CounterVec
	RecommendationsTotal *prometheus.CounterVec
	SessionsActive       prometheus.Gauge
	PollVotesTotal       prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lettuce_events_total",
				Help: "Total number of Slack events handled by type.",
			},
			[]string{"type"},
		),
		RecommendationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lettuce_recommendations_total",
				Help: "Total number of recommendation results served by path and outcome.",
			},
			[]string{"path", "outcome"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lettuce_sessions_active",
				Help: "Number of live recommendation conversations.",
			},
		),
		PollVotesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lettuce_poll_votes_total",
				Help: "Total number of poll votes recorded.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lettuce_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.RecommendationsTotal)
	reg.MustRegister(m.SessionsActive)
	reg.MustRegister(m.PollVotesTotal)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvent increments the event counter.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}

// RecordRecommendation increments the recommendation counter.
func (m *Metrics) RecordRecommendation(path, outcome string) {
	m.RecommendationsTotal.WithLabelValues(path, outcome).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// SetActiveSessions sets the live session gauge.
func (m *Metrics) SetActiveSessions(count float64) {
	m.SessionsActive.Set(count)
}
