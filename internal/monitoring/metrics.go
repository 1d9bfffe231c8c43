package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for pause invocations.
const (
	OutcomeCompleted      = "completed"
	OutcomeTimedOut       = "timed_out"
	OutcomeAborted        = "aborted"
	OutcomeNonInteractive = "noninteractive"
	OutcomeConfigError    = "config_error"
	OutcomeError          = "error"
)

// Metrics holds all Prometheus metrics for the pause provider.
type Metrics struct {
	PausesTotal   *prometheus.CounterVec
	PauseDuration prometheus.Histogram
	PausesActive  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector backed by its own registry, so
// multiple collectors can coexist in one process (hosts, tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PausesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausekit_pauses_total",
				Help: "Total number of pause invocations by outcome",
			},
			[]string{"outcome"},
		),
		PauseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pausekit_pause_duration_seconds",
				Help:    "Wall-clock duration of pause invocations in seconds",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900, 3600},
			},
		),
		PausesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pausekit_pauses_active",
				Help: "Number of pause invocations currently waiting on input",
			},
		),
	}
}

// NewNop creates a collector whose metrics are registered nowhere. Hosts use
// it when metrics are disabled, so recording still works but nothing becomes
// scrapable; Registry reports nil.
func NewNop() *Metrics {
	return &Metrics{
		PausesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausekit_pauses_total",
				Help: "Total number of pause invocations by outcome",
			},
			[]string{"outcome"},
		),
		PauseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "pausekit_pause_duration_seconds",
				Help: "Wall-clock duration of pause invocations in seconds",
			},
		),
		PausesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pausekit_pauses_active",
				Help: "Number of pause invocations currently waiting on input",
			},
		),
	}
}

// Registry exposes the underlying registry for host scraping endpoints. Nil
// for a collector built with NewNop.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPause records one finished invocation.
func (m *Metrics) RecordPause(outcome string, duration time.Duration) {
	m.PausesTotal.WithLabelValues(outcome).Inc()
	m.PauseDuration.Observe(duration.Seconds())
}
