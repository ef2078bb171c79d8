// Package metrics exposes Prometheus instrumentation for simulation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linesim"

// Recorder owns the run metrics of one process. A nil *Recorder is valid and
// records nothing, so library callers never have to wire Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	// ScenariosEvaluated counts evaluated scenarios.
	// Labels: product_line
	ScenariosEvaluated *prometheus.CounterVec

	// ScenariosFailed counts scenarios whose physics reported failure.
	// Labels: product_line
	ScenariosFailed *prometheus.CounterVec

	// BatchDuration measures sample+evaluate time of one chunk.
	// Labels: product_line
	BatchDuration *prometheus.HistogramVec

	// NumericErrors counts batches rejected for NaN/Inf or impossible values.
	// Labels: product_line, model
	NumericErrors *prometheus.CounterVec

	// Runs counts finished runs.
	// Labels: product_line, kind (evaluate, sweep, sensitivity), status (ok, error)
	Runs *prometheus.CounterVec

	// RunDuration measures whole-run wall time.
	// Labels: product_line, kind
	RunDuration *prometheus.HistogramVec

	// SweepCandidates counts evaluated grid candidates.
	// Labels: product_line
	SweepCandidates *prometheus.CounterVec

	// InfeasibleSweeps counts sweeps with no feasible candidate.
	// Labels: product_line
	InfeasibleSweeps *prometheus.CounterVec
}

// NewRecorder registers the run metrics on reg. A nil registry gets a fresh
// one.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ScenariosEvaluated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scenarios_evaluated_total",
			Help:      "Total Monte Carlo scenarios evaluated",
		}, []string{"product_line"}),
		ScenariosFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scenarios_failed_total",
			Help:      "Total scenarios flagged as process failures",
		}, []string{"product_line"}),
		BatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "batch_duration_seconds",
			Help:      "Time to sample and evaluate one chunk",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"product_line"}),
		NumericErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "numeric_errors_total",
			Help:      "Total batches rejected for non-finite or impossible values",
		}, []string{"product_line", "model"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total finished runs by kind and status",
		}, []string{"product_line", "kind", "status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"product_line", "kind"}),
		SweepCandidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "candidates_total",
			Help:      "Total sweep grid candidates evaluated",
		}, []string{"product_line"}),
		InfeasibleSweeps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "infeasible_total",
			Help:      "Total sweeps where every candidate was infeasible",
		}, []string{"product_line"}),
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveBatch records one evaluated chunk.
func (r *Recorder) ObserveBatch(line string, n, failed int, d time.Duration) {
	if r == nil {
		return
	}
	r.ScenariosEvaluated.WithLabelValues(line).Add(float64(n))
	r.ScenariosFailed.WithLabelValues(line).Add(float64(failed))
	r.BatchDuration.WithLabelValues(line).Observe(d.Seconds())
}

// NumericError records a rejected batch.
func (r *Recorder) NumericError(line, model string) {
	if r == nil {
		return
	}
	r.NumericErrors.WithLabelValues(line, model).Inc()
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(line, kind string, err error, d time.Duration) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Runs.WithLabelValues(line, kind, status).Inc()
	r.RunDuration.WithLabelValues(line, kind).Observe(d.Seconds())
}

// SweepCandidate records one evaluated grid candidate.
func (r *Recorder) SweepCandidate(line string) {
	if r == nil {
		return
	}
	r.SweepCandidates.WithLabelValues(line).Inc()
}

// InfeasibleSweep records a sweep without a feasible candidate.
func (r *Recorder) InfeasibleSweep(line string) {
	if r == nil {
		return
	}
	r.InfeasibleSweeps.WithLabelValues(line).Inc()
}
