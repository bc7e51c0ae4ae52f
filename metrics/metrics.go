// Package metrics exposes Prometheus instrumentation for the ticket service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the ticket service
type Metrics struct {
	// Connection metrics
	ConnectionsTotal prometheus.Counter
	ActiveSessions   prometheus.Gauge

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration prometheus.Histogram

	// Error metrics
	ParseErrors prometheus.Counter
	StoreErrors prometheus.Counter
}

// New creates all metrics and registers them with the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry, or a
// fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketline_connections_total",
			Help: "Total number of accepted client connections",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ticketline_active_sessions",
			Help: "Number of currently connected sessions",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketline_commands_total",
			Help: "Total number of dispatched commands by name and status code",
		}, []string{"command", "status_code"}),
		CommandDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketline_command_duration_seconds",
			Help:    "Time spent dispatching a single command",
			Buckets: prometheus.DefBuckets,
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketline_parse_errors_total",
			Help: "Total number of request lines that failed tokenization",
		}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketline_store_errors_total",
			Help: "Total number of storage failures surfaced as internal errors",
		}),
	}
}
