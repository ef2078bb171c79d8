// Package improvement searches a product line's parameter space for the
// setpoint that maximizes a ranking target under common random numbers.
package improvement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoSim-25-26J-441/processline-sim/internal/engine"
	"github.com/GoSim-25-26J-441/processline-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

const tracerName = "github.com/GoSim-25-26J-441/processline-sim/internal/improvement"

// refineZoom is the factor by which each refinement round shrinks the step.
const refineZoom = 4

// refinePoints bounds the points per parameter in one refinement round: the
// zoomed grid spans ±step at step/refineZoom.
const refinePoints = 2*refineZoom + 1

// SweepSpec describes one sweep.
type SweepSpec struct {
	// Grids defaults to the line's configured sweep when empty.
	Grids []config.Grid
	N     int
	// Seed is resolved once so that every candidate sees the same draws.
	Seed engine.Seed
	// Setpoints fixes parameters that are not swept.
	Setpoints       map[string]float64
	MarketOverrides map[string]config.Distribution
	// RefineRounds zooms the grid around the optimum this many times.
	RefineRounds int
}

// SweepOptimizer evaluates a grid of setpoints with the Monte Carlo engine
// and selects the best feasible one.
type SweepOptimizer struct {
	engine      *engine.Engine
	target      RankingTarget
	parallel    int
	convergence ConvergenceStrategy
	recorder    *metrics.Recorder
	logger      *slog.Logger
	tracer      trace.Tracer
	budget      int
}

// Option configures a SweepOptimizer.
type Option func(*SweepOptimizer)

// WithTarget overrides the line's configured ranking target.
func WithTarget(t RankingTarget) Option {
	return func(o *SweepOptimizer) {
		if t != nil {
			o.target = t
		}
	}
}

// WithParallelism bounds the number of candidates evaluated at once.
func WithParallelism(n int) Option {
	return func(o *SweepOptimizer) {
		if n > 0 {
			o.parallel = n
		}
	}
}

// WithConvergence sets the strategy that stops refinement.
func WithConvergence(s ConvergenceStrategy) Option {
	return func(o *SweepOptimizer) {
		if s != nil {
			o.convergence = s
		}
	}
}

// WithScenarioBudget caps the scenarios one sweep may evaluate, counting the
// baseline, every grid candidate and the worst case of every refinement
// round. Zero means no cap.
func WithScenarioBudget(n int) Option {
	return func(o *SweepOptimizer) {
		if n >= 0 {
			o.budget = n
		}
	}
}

// WithRecorder attaches Prometheus instrumentation.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *SweepOptimizer) {
		o.recorder = r
	}
}

// WithLogger sets the optimizer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *SweepOptimizer) {
		o.logger = l
	}
}

// NewSweepOptimizer creates an optimizer over e's product line.
func NewSweepOptimizer(e *engine.Engine, opts ...Option) (*SweepOptimizer, error) {
	target, err := NewRankingTarget(e.Line().RankingTarget())
	if err != nil {
		return nil, err
	}
	o := &SweepOptimizer{
		engine:      e,
		target:      target,
		parallel:    max(1, runtime.GOMAXPROCS(0)/2),
		convergence: NewCombinedStrategy(nil),
		logger:      logger.Default,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Target returns the ranking target in use.
func (o *SweepOptimizer) Target() RankingTarget {
	return o.target
}

// evaluated is a candidate with its run summary.
type evaluated struct {
	point   models.SweepPoint
	summary *models.Summary
}

// Sweep evaluates every grid candidate with the same N and seed and picks
// the feasible candidate with the highest aggregate; ties keep the lower
// setpoint. When nothing is feasible the result is returned together with an
// *InfeasibleResult error.
func (o *SweepOptimizer) Sweep(ctx context.Context, spec SweepSpec) (*models.SweepResult, error) {
	line := o.engine.Line()
	grids := spec.Grids
	if len(grids) == 0 {
		if line.Sweep == nil {
			return nil, config.Errorf(line.Name, "sweep", "no grid given and none configured")
		}
		grids = []config.Grid{*line.Sweep}
	}
	for _, g := range grids {
		p, ok := line.Parameter(g.Parameter)
		if !ok {
			return nil, config.Errorf(line.Name, "sweep."+g.Parameter, "unknown parameter")
		}
		if g.Start < p.Min || g.Stop > p.Max {
			return nil, config.Errorf(line.Name, "sweep."+g.Parameter, "grid [%g, %g] outside parameter range [%g, %g]", g.Start, g.Stop, p.Min, p.Max)
		}
	}
	if spec.N <= 0 {
		return nil, &engine.SamplingError{Variable: "n", Reason: fmt.Sprintf("scenario count must be positive, got %d", spec.N)}
	}
	candidates, err := Expand(grids, spec.Setpoints)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Line = line.Name
		}
		return nil, err
	}
	if o.budget > 0 {
		if total := ScenarioCount(len(candidates), len(grids), spec.RefineRounds, spec.N); total > float64(o.budget) {
			return nil, &engine.SamplingError{Variable: "n", Reason: fmt.Sprintf(
				"sweep would evaluate up to %.0f scenarios (%d candidates, %d refinement rounds, n=%d), limit %d",
				total, len(candidates), spec.RefineRounds, spec.N, o.budget)}
		}
	}

	seed := spec.Seed.Pin()
	ctx, span := o.tracer.Start(ctx, "improvement.Sweep", trace.WithAttributes(
		attribute.String("product_line", line.Name),
		attribute.String("target", o.target.Name()),
		attribute.Int("candidates", len(candidates)),
		attribute.Int("n", spec.N),
	))
	defer span.End()
	start := time.Now()

	result := &models.SweepResult{
		RunID:       utils.GenerateSweepID(),
		ProductLine: line.Name,
		Target:      o.target.Name(),
		N:           spec.N,
		Seed:        seed.Resolve(),
	}
	for _, g := range grids {
		result.Parameters = append(result.Parameters, g.Parameter)
	}

	baseline := Candidate{Setpoint: line.NominalSetpoints()}
	for name, v := range spec.Setpoints {
		baseline.Setpoint[name] = v
	}
	for _, g := range grids {
		baseline.Values = append(baseline.Values, baseline.Setpoint[g.Parameter])
	}

	evals, err := o.evaluateAll(ctx, append([]Candidate{baseline}, candidates...), spec, seed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Baseline = evals[0].point
	evals = evals[1:]
	for _, ev := range evals {
		result.Points = append(result.Points, ev.point)
	}

	best := selectBest(evals)
	if best < 0 {
		result.Feasible = false
		o.recorder.InfeasibleSweep(line.Name)
		reason := o.infeasibleReason(result.Points)
		o.logger.Info("Sweep found no feasible setpoint",
			"product_line", line.Name,
			"candidates", len(result.Points),
			"reason", reason)
		span.SetStatus(codes.Error, ErrInfeasible.Error())
		return result, &InfeasibleResult{Result: result, Reason: reason}
	}

	optimum := evals[best]
	result.Feasible = true
	result.Converged = true
	result.ConvergenceReason = "grid exhausted"

	if spec.RefineRounds > 0 {
		optimum, err = o.refine(ctx, spec, seed, grids, optimum, result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	point := optimum.point
	result.Optimum = &point
	result.OptimumSummary = optimum.summary
	cmp := Compare(result.Baseline, point)
	result.Comparison = &cmp

	o.logger.Info("Sweep selected setpoint",
		"product_line", line.Name,
		"target", o.target.Name(),
		"setpoint", point.Setpoint,
		"aggregate", point.Aggregate,
		"baseline_aggregate", result.Baseline.Aggregate,
		"improvement_pct", ImprovementPercentage(result.Baseline.Aggregate, point.Aggregate),
		"duration", time.Since(start))
	return result, nil
}

// ScenarioCount is the most scenarios a sweep can evaluate: the baseline and
// every candidate, plus a full zoomed grid per refinement round. It is a
// float64 so that large grids cannot overflow.
func ScenarioCount(candidates, parameters, refineRounds, n int) float64 {
	runs := float64(candidates + 1)
	if refineRounds > 0 {
		runs += float64(refineRounds) * math.Pow(refinePoints, float64(parameters))
	}
	return runs * float64(n)
}

// refine zooms around the optimum: each round evaluates ±previous step at a
// quarter of that step, clamped to the parameter range, until the
// convergence strategy stops it.
func (o *SweepOptimizer) refine(ctx context.Context, spec SweepSpec, seed engine.Seed, grids []config.Grid, optimum evaluated, result *models.SweepResult) (evaluated, error) {
	line := o.engine.Line()
	steps := make([]float64, len(grids))
	for i, g := range grids {
		steps[i] = g.Step
	}
	history := []models.RefinementStep{{
		Round:     0,
		Step:      append([]float64(nil), steps...),
		Setpoint:  optimum.point.Setpoint,
		Aggregate: optimum.point.Aggregate,
	}}
	result.Converged = false
	result.ConvergenceReason = "refinement rounds exhausted"

	for round := 1; round <= spec.RefineRounds; round++ {
		zoomed := make([]config.Grid, len(grids))
		for i, g := range grids {
			p, _ := line.Parameter(g.Parameter)
			center := optimum.point.Values[i]
			zoomed[i] = config.Grid{
				Parameter: g.Parameter,
				Start:     math.Max(p.Min, center-steps[i]),
				Stop:      math.Min(p.Max, center+steps[i]),
				Step:      steps[i] / refineZoom,
			}
			steps[i] = zoomed[i].Step
		}
		candidates, err := Expand(zoomed, spec.Setpoints)
		if err != nil {
			return optimum, err
		}
		evals, err := o.evaluateAll(ctx, candidates, spec, seed)
		if err != nil {
			return optimum, err
		}
		if best := selectBest(evals); best >= 0 && better(evals[best].point, optimum.point) {
			optimum = evals[best]
		}

		history = append(history, models.RefinementStep{
			Round:     round,
			Step:      append([]float64(nil), steps...),
			Setpoint:  optimum.point.Setpoint,
			Aggregate: optimum.point.Aggregate,
		})
		o.logger.Debug("Refinement round completed",
			"product_line", line.Name,
			"round", round,
			"step", steps,
			"aggregate", optimum.point.Aggregate)

		if converged, reason := o.convergence.CheckConvergence(history); converged {
			result.Converged = true
			result.ConvergenceReason = reason
			break
		}
	}
	result.Refinement = history
	return optimum, nil
}

// evaluateAll runs every candidate with a bounded number in flight. Results
// keep candidate order and the first error in candidate order is returned.
func (o *SweepOptimizer) evaluateAll(ctx context.Context, candidates []Candidate, spec SweepSpec, seed engine.Seed) ([]evaluated, error) {
	semaphore := make(chan struct{}, o.parallel)
	var wg sync.WaitGroup
	results := make([]evaluated, len(candidates))
	errs := make([]error, len(candidates))

	for i, c := range candidates {
		wg.Add(1)
		go func(idx int, c Candidate) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx], errs[idx] = o.evaluate(ctx, c, spec, seed)
		}(i, c)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("candidate %v: %w", candidates[i].Setpoint, err)
		}
	}
	return results, nil
}

func (o *SweepOptimizer) evaluate(ctx context.Context, c Candidate, spec SweepSpec, seed engine.Seed) (evaluated, error) {
	if err := ctx.Err(); err != nil {
		return evaluated{}, err
	}
	res, err := o.engine.Run(ctx, engine.RunSpec{
		N:               spec.N,
		Seed:            seed,
		Setpoints:       c.Setpoint,
		MarketOverrides: spec.MarketOverrides,
	})
	if err != nil {
		return evaluated{}, err
	}
	o.recorder.SweepCandidate(o.engine.Line().Name)

	s := res.Summary
	return evaluated{
		point: models.SweepPoint{
			Setpoint:      c.Setpoint,
			Values:        c.Values,
			Aggregate:     o.target.Aggregate(res),
			MeanYield:     s.Yield.Mean,
			MeanObjective: s.Objective.Mean,
			MeanUnitCost:  s.UnitCost.Mean,
			FailureRate:   s.FailureRate,
			Feasible:      o.feasible(s.FailureRate),
		},
		summary: s,
	}, nil
}

// feasible applies the line's failure rule: a candidate whose every
// scenario failed is never feasible, and the configured cap applies on top.
func (o *SweepOptimizer) feasible(failureRate float64) bool {
	if failureRate >= 1 {
		return false
	}
	if limit := o.engine.Line().Objective.MaxFailureRate; limit != nil && failureRate > *limit {
		return false
	}
	return true
}

func (o *SweepOptimizer) infeasibleReason(points []models.SweepPoint) string {
	lowest := math.Inf(1)
	for _, p := range points {
		lowest = math.Min(lowest, p.FailureRate)
	}
	if limit := o.engine.Line().Objective.MaxFailureRate; limit != nil {
		return fmt.Sprintf("lowest failure rate %.4f exceeds max_failure_rate %.4f", lowest, *limit)
	}
	return fmt.Sprintf("every candidate failed (lowest failure rate %.4f)", lowest)
}

// selectBest returns the index of the best feasible candidate, or -1.
func selectBest(evals []evaluated) int {
	best := -1
	for i, ev := range evals {
		if !ev.point.Feasible {
			continue
		}
		if best < 0 || better(ev.point, evals[best].point) {
			best = i
		}
	}
	return best
}

// better orders points by aggregate, then by lower swept values compared
// lexicographically, so a tie always goes to the lower setpoint.
func better(a, b models.SweepPoint) bool {
	if a.Aggregate != b.Aggregate {
		return a.Aggregate > b.Aggregate
	}
	for i := range min(len(a.Values), len(b.Values)) {
		if a.Values[i] != b.Values[i] {
			return a.Values[i] < b.Values[i]
		}
	}
	return false
}
