// Package metrics exposes Prometheus instrumentation for report runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the report pipeline's Prometheus collectors.
type Metrics struct {
	RunsStarted      prometheus.Counter
	RunsCompleted    *prometheus.CounterVec
	RunsInFlight     prometheus.Gauge
	RunDuration      prometheus.Histogram
	Transitions      *prometheus.CounterVec
	WorkerCalls      *prometheus.CounterVec
	WorkerDuration   *prometheus.HistogramVec
	ReviewIterations prometheus.Histogram
}

// New registers the pipeline collectors against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "informe",
			Name:      "runs_started_total",
			Help:      "Number of report runs started.",
		}),
		RunsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "informe",
			Name:      "runs_completed_total",
			Help:      "Number of report runs reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		RunsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "informe",
			Name:      "runs_in_flight",
			Help:      "Number of report runs currently executing.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "informe",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full report run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "informe",
			Name:      "state_transitions_total",
			Help:      "Number of orchestrator state transitions, by target state.",
		}, []string{"state"}),
		WorkerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "informe",
			Name:      "worker_calls_total",
			Help:      "Number of worker invocations, by role and result status.",
		}, []string{"role", "status"}),
		WorkerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "informe",
			Name:      "worker_duration_seconds",
			Help:      "Duration of worker invocations, by role.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"role"}),
		ReviewIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "informe",
			Name:      "review_iterations",
			Help:      "Number of review iterations consumed per run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
	}
}
