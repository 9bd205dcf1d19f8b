package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the watch-engine counters exposed at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	EventsReceived   prometheus.Counter
	EventsMatched    prometheus.Counter
	VersionsWritten  prometheus.Counter
	WriteErrors      prometheus.Counter
	ChangesDiscarded prometheus.Counter
	SourceErrors     prometheus.Counter
}

// New creates the metric set on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_events_received_total",
			Help: "Raw filesystem events received from the event source.",
		}),
		EventsMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_events_matched_total",
			Help: "Raw events that matched a tracked file.",
		}),
		VersionsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_versions_written_total",
			Help: "Version files successfully written.",
		}),
		WriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_write_errors_total",
			Help: "Version writes that failed.",
		}),
		ChangesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_changes_discarded_total",
			Help: "Pending changes discarded because the file was removed before quiescence.",
		}),
		SourceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "versio_source_errors_total",
			Help: "Errors reported by the filesystem event source.",
		}),
	}
}

// RegisterPendingGauge exposes the size of the pending-change table through
// the provided callback.
func (m *Metrics) RegisterPendingGauge(pending func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "versio_pending_changes",
		Help: "Paths with an outstanding, not-yet-versioned modification.",
	}, func() float64 {
		return float64(pending())
	})
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
