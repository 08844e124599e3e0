package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "briefing"

// Metrics holds the Prometheus counters, histograms, and gauges for briefing runs.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec // labels: outcome={delivered,rejected,failed}
	RunDuration  prometheus.Histogram
	BatchRunning prometheus.Gauge

	// Provider metrics.
	SourceFetches       *prometheus.CounterVec   // labels: source, status={ok,absent,unavailable}
	SourceFetchDuration *prometheus.HistogramVec // labels: source
	CacheLookups        *prometheus.CounterVec   // labels: source, result={hit,miss}

	AuditAppendErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed subscription runs by delivery outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a single subscription run, fetch through delivery.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a batch is iterating subscriptions, 0 otherwise.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Provider fetches by source and resulting status.",
		}, []string{"source", "status"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Provider fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Provider cache lookups by source and result.",
		}, []string{"source", "result"}),
		AuditAppendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_append_errors_total",
			Help:      "Audit records that could not be appended.",
		}),
	}
}

// NewMetrics creates and registers all briefing metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.BatchRunning,
		m.SourceFetches,
		m.SourceFetchDuration,
		m.CacheLookups,
		m.AuditAppendErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
