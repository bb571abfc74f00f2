package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "half_america"

// Metrics holds the Prometheus collectors updated by Run.
type Metrics struct {
	SolverCalls      prometheus.Counter
	NonConverged     prometheus.Counter
	Sweeps           *prometheus.CounterVec
	LambdaDuration   prometheus.Histogram
	SearchIterations prometheus.Histogram
}

// NewMetrics creates the sweep collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SolverCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "solver_calls_total",
				Help:      "Total number of min-cut solves",
			},
		),
		NonConverged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "lambda_not_converged_total",
				Help:      "Total number of lambda values whose mu search hit the iteration cap",
			},
		),
		Sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sweeps_total",
				Help:      "Total number of sweeps by outcome",
			},
			[]string{"outcome"},
		),
		LambdaDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "lambda_duration_seconds",
				Help:      "Wall time of one lambda's mu search",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		SearchIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "search_iterations",
				Help:      "Bisection steps per lambda",
				Buckets:   prometheus.LinearBuckets(5, 5, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.SolverCalls, m.NonConverged, m.Sweeps, m.LambdaDuration, m.SearchIterations)
	}
	return m
}
