package telemetry

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational counters for the scraper. Grounded on the
// teacher's internal/observability.Metrics field set, reattached to
// prometheus collectors instead of a hand-written text encoder.
type Metrics struct {
	SourceRequests      *prometheus.CounterVec
	SourceBlocked       *prometheus.CounterVec
	SourceErrors        *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
	JobItemsProcessed   *prometheus.CounterVec
	JobItemsFailed      *prometheus.CounterVec
	ContextAgeSeconds   *prometheus.GaugeVec
	ContextRequestCount *prometheus.GaugeVec
	ProxyRotations      prometheus.Counter
	ProxyQuarantined    prometheus.Gauge

	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewMetrics registers every collector against a fresh registry so tests
// can construct isolated Metrics instances without a global default
// registry colliding across cases.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutd_source_requests_total",
			Help: "Total scrape attempts per source.",
		}, []string{"source"}),
		SourceBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutd_source_blocked_total",
			Help: "Total attempts a source reported as bot-blocked, by reason.",
		}, []string{"source", "reason"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutd_source_errors_total",
			Help: "Total fetch/parse errors per source.",
		}, []string{"source"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoutd_job_duration_seconds",
			Help:    "Job run duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		JobItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutd_job_items_processed_total",
			Help: "Items processed per job, by sport.",
		}, []string{"job", "sport"}),
		JobItemsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutd_job_items_failed_total",
			Help: "Items that failed resolution or persistence, by job.",
		}, []string{"job"}),
		ContextAgeSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scoutd_context_age_seconds",
			Help: "Age of each pooled browser context in seconds.",
		}, []string{"context"}),
		ContextRequestCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scoutd_context_request_count",
			Help: "Requests served by each pooled browser context since creation.",
		}, []string{"context"}),
		ProxyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoutd_proxy_rotations_total",
			Help: "Total proxy selections made by the rotator.",
		}),
		ProxyQuarantined: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoutd_proxy_quarantined",
			Help: "Number of proxy providers currently quarantined.",
		}),
		registry: reg,
		logger:   logger.With("component", "metrics"),
	}

	reg.MustRegister(
		m.SourceRequests, m.SourceBlocked, m.SourceErrors,
		m.JobDuration, m.JobItemsProcessed, m.JobItemsFailed,
		m.ContextAgeSeconds, m.ContextRequestCount,
		m.ProxyRotations, m.ProxyQuarantined,
	)
	return m
}

// Handler exposes the registry in Prometheus text format; cmd/scoutd
// mounts it at /metrics on the separate metrics listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Snapshot gathers the current counter and gauge values into a flat map
// keyed by metric family name, summed across label sets.
func (m *Metrics) Snapshot() map[string]float64 {
	out := map[string]float64{}
	families, err := m.registry.Gather()
	if err != nil {
		m.logger.Error("metrics gather failed", "error", err)
		return out
	}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[fam.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[fam.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	return out
}
