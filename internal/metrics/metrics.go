// Package metrics provides Prometheus metrics collection and the process
// snapshot backing get_performance_metrics (spec §4.9 ambient section).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the server exposes.
type Metrics struct {
	ToolCallsTotal    *prometheus.CounterVec
	ToolCallDuration  *prometheus.HistogramVec
	ToolErrorsTotal   *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	ActiveSubscribers prometheus.Gauge
	DatabaseQueries   *prometheus.CounterVec
}

// New creates a Metrics instance registered against the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// for tests that want an isolated registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shared_context_tool_calls_total",
				Help: "Total number of tool dispatch calls",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shared_context_tool_call_duration_seconds",
				Help:    "Tool dispatch call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"tool"},
		),
		ToolErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shared_context_tool_errors_total",
				Help: "Total number of tool dispatch errors by error code",
			},
			[]string{"tool", "code"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shared_context_active_sessions",
				Help: "Number of currently active sessions",
			},
		),
		ActiveSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shared_context_active_subscribers",
				Help: "Number of currently connected notification-bus subscribers",
			},
		),
		DatabaseQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shared_context_database_queries_total",
				Help: "Total number of database queries by operation",
			},
			[]string{"operation"},
		),
	}

	registerer.MustRegister(
		m.ToolCallsTotal, m.ToolCallDuration, m.ToolErrorsTotal,
		m.ActiveSessions, m.ActiveSubscribers, m.DatabaseQueries,
	)
	return m
}

// RecordToolCall updates the tool-call counter, duration histogram, and
// (on failure) the per-code error counter.
func (m *Metrics) RecordToolCall(tool, status string, seconds float64, errorCode string) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(seconds)
	if errorCode != "" {
		m.ToolErrorsTotal.WithLabelValues(tool, errorCode).Inc()
	}
}
