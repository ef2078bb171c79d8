// Package engine is the vectorized Monte Carlo engine: it samples scenario
// batches for a product line, runs them through the physics, cost and
// objective stages, and reduces the result to summary statistics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/processline-sim/internal/cost"
	"github.com/GoSim-25-26J-441/processline-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/processline-sim/internal/objective"
	"github.com/GoSim-25-26J-441/processline-sim/internal/physics"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

const tracerName = "github.com/GoSim-25-26J-441/processline-sim/internal/engine"

// DefaultChunkSize is the number of scenarios sampled and evaluated as one
// unit of work. Results are reproducible for a fixed chunk size.
const DefaultChunkSize = 1 << 16

// Engine runs Monte Carlo evaluations of one product line. An Engine is
// immutable after New and safe for concurrent use.
type Engine struct {
	line      *config.ProductLine
	physics   physics.Model
	cost      cost.Model
	objective objective.Function
	outcomes  map[string]bool

	chunkSize int
	workers   int
	recorder  *metrics.Recorder
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the number of scenarios per chunk.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithWorkers bounds the number of chunks evaluated concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRecorder attaches Prometheus instrumentation.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New builds the engine for line, resolving its physics and cost strategies
// and checking every configured distribution and spec limit up front.
func New(line *config.ProductLine, opts ...Option) (*Engine, error) {
	pm, err := physics.New(line)
	if err != nil {
		return nil, err
	}
	cm, err := cost.New(line)
	if err != nil {
		return nil, err
	}

	for _, p := range line.Parameters {
		if p.Jitter != nil {
			if err := validateDistribution(p.Name, *p.Jitter); err != nil {
				return nil, err
			}
		}
	}
	for _, group := range [][]config.Distribution{line.Market, line.Noise} {
		for _, d := range group {
			if err := validateDistribution(d.Name, d); err != nil {
				return nil, err
			}
		}
	}

	outcomes := map[string]bool{
		models.OutcomeYield:        true,
		models.OutcomeCycleTime:    true,
		models.OutcomeMaterialCost: true,
		models.OutcomeUnitCost:     true,
		models.OutcomeMargin:       true,
		models.OutcomeObjective:    true,
	}
	for _, q := range pm.Requirements().Quality {
		outcomes[q] = true
	}
	for i, s := range line.SpecLimits {
		if !outcomes[s.Outcome] {
			return nil, config.Errorf(line.Name, fmt.Sprintf("spec_limits[%d].outcome", i),
				"model %s does not produce outcome %q", pm.Name(), s.Outcome)
		}
	}

	e := &Engine{
		line:      line,
		physics:   pm,
		cost:      cm,
		objective: objective.New(line.Objective),
		outcomes:  outcomes,
		chunkSize: DefaultChunkSize,
		workers:   runtime.GOMAXPROCS(0),
		logger:    logger.Default,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Line returns the product line the engine evaluates.
func (e *Engine) Line() *config.ProductLine {
	return e.line
}

// HasOutcome reports whether name is an outcome of this line's evaluation.
func (e *Engine) HasOutcome(name string) bool {
	return e.outcomes[name]
}

// Outcomes lists every outcome name in sorted order.
func (e *Engine) Outcomes() []string {
	names := make([]string, 0, len(e.outcomes))
	for name := range e.outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate runs one batch through physics, cost and objective. Any NaN, Inf
// or non-positive unit cost rejects the whole batch.
func (e *Engine) Evaluate(b *models.ScenarioBatch) (*models.Evaluation, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	proc, err := e.physics.Simulate(b, physics.Constants(e.line.Physics.Constants))
	if err != nil {
		return nil, fmt.Errorf("physics model %s: %w", e.physics.Name(), err)
	}
	if err := proc.Validate(b.N); err != nil {
		return nil, err
	}
	quality := e.physics.Requirements().Quality
	for _, q := range quality {
		if _, ok := proc.Quality[q]; !ok {
			return nil, &models.ShapeError{Source: "process", Column: q, Len: 0, Want: b.N}
		}
	}
	checks := []namedColumn{
		{models.OutcomeYield, proc.Yield},
		{models.OutcomeCycleTime, proc.CycleTime},
	}
	for _, q := range quality {
		checks = append(checks, namedColumn{q, proc.Quality[q]})
	}
	if err := e.checkFinite(e.physics.Name(), b, checks...); err != nil {
		return nil, err
	}

	costs, err := e.cost.Compute(b, proc)
	if err != nil {
		return nil, fmt.Errorf("cost model %s: %w", e.cost.Name(), err)
	}
	if err := e.checkFinite(e.cost.Name(), b,
		namedColumn{models.OutcomeMaterialCost, costs.MaterialCost},
		namedColumn{models.OutcomeUnitCost, costs.UnitCost},
		namedColumn{models.OutcomeMargin, costs.Margin},
	); err != nil {
		return nil, err
	}
	for i, v := range costs.UnitCost {
		if v <= 0 {
			return nil, e.domainError(e.cost.Name(), models.OutcomeUnitCost, i, v, "unit cost must be positive", b)
		}
	}

	score, err := e.objective.Score(proc, costs)
	if err != nil {
		return nil, fmt.Errorf("objective %s: %w", e.objective.Name(), err)
	}
	if err := e.checkFinite(e.objective.Name(), b, namedColumn{models.OutcomeObjective, score.Values}); err != nil {
		return nil, err
	}

	return &models.Evaluation{Batch: b, Process: proc, Cost: costs, Objective: score}, nil
}

type namedColumn struct {
	name   string
	values []float64
}

func (e *Engine) checkFinite(model string, b *models.ScenarioBatch, cols ...namedColumn) error {
	for _, c := range cols {
		if i := utils.FirstNonFinite(c.values); i >= 0 {
			return e.domainError(model, c.name, i, c.values[i], "", b)
		}
	}
	return nil
}

func (e *Engine) domainError(model, quantity string, i int, v float64, reason string, b *models.ScenarioBatch) *NumericDomainError {
	err := &NumericDomainError{
		Model:    model,
		Quantity: quantity,
		Index:    b.Offset + i,
		Start:    b.Offset,
		End:      b.Offset + b.N,
		Value:    v,
		Reason:   reason,
		Params:   make(map[string]ParamRange, len(b.Params)),
		Inputs:   make(map[string]float64, len(b.Params)),
	}
	for name, col := range b.Params {
		lo, hi := utils.MinMax(col)
		err.Params[name] = ParamRange{Min: lo, Max: hi}
		err.Inputs[name] = col[i]
	}
	return err
}

// Result is the outcome of a Run.
type Result struct {
	Evaluation *models.Evaluation
	Summary    *models.Summary
}

// Run samples and evaluates spec.N scenarios in chunks. Chunks are evaluated
// concurrently and write disjoint ranges of preallocated outputs, so the
// result is identical for any worker count.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (*Result, error) {
	if spec.N <= 0 {
		return nil, &SamplingError{Variable: "n", Reason: fmt.Sprintf("scenario count must be positive, got %d", spec.N)}
	}
	p, err := e.plan(spec)
	if err != nil {
		return nil, err
	}
	seed := spec.Seed.Resolve()

	ctx, span := e.tracer.Start(ctx, "engine.Run", trace.WithAttributes(
		attribute.String("product_line", e.line.Name),
		attribute.Int("n", spec.N),
		attribute.Int64("seed", int64(seed)),
		attribute.Int("workers", e.workers),
	))
	defer span.End()

	e.logger.Debug("Starting Monte Carlo run",
		"product_line", e.line.Name,
		"n", spec.N,
		"seed", seed,
		"chunk_size", e.chunkSize,
		"workers", e.workers)
	start := time.Now()

	out := e.allocate(spec.N, seed, spec.KeepInputs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for offset := 0; offset < spec.N; offset += e.chunkSize {
		if gctx.Err() != nil {
			break
		}
		n := min(e.chunkSize, spec.N-offset)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, chunk := e.tracer.Start(gctx, "engine.evaluateChunk", trace.WithAttributes(
				attribute.Int("offset", offset),
				attribute.Int("n", n),
			))
			defer chunk.End()

			t0 := time.Now()
			ev, err := e.Evaluate(p.sample(n, offset, seed))
			if err != nil {
				chunk.RecordError(err)
				var nd *NumericDomainError
				if errors.As(err, &nd) {
					e.recorder.NumericError(e.line.Name, nd.Model)
				}
				return err
			}
			place(out, ev, offset, spec.KeepInputs)
			e.recorder.ObserveBatch(e.line.Name, n, countTrue(ev.Process.Failed), time.Since(t0))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("Monte Carlo run failed", "product_line", e.line.Name, "seed", seed, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, err := e.Summarize(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	summary.RunID = utils.GenerateRunID()
	summary.ProductLine = e.line.Name
	summary.Seed = seed
	summary.Setpoints = p.setpoints

	e.logger.Debug("Monte Carlo run completed",
		"product_line", e.line.Name,
		"run_id", summary.RunID,
		"n", spec.N,
		"failure_rate", summary.FailureRate,
		"duration", time.Since(start))
	return &Result{Evaluation: out, Summary: summary}, nil
}

// allocate preallocates the merged outputs of an n-scenario run.
func (e *Engine) allocate(n int, seed uint64, keepInputs bool) *models.Evaluation {
	filled := func() []float64 { return make([]float64, n) }
	ev := &models.Evaluation{
		Process: models.NewProcessOutcome(n, e.physics.Requirements().Quality...),
		Cost: &models.CostOutcome{
			MaterialCost:   filled(),
			ConversionCost: filled(),
			UnitCost:       filled(),
			Margin:         filled(),
		},
		Objective: &models.ObjectiveScore{Values: filled()},
	}
	if keepInputs {
		b := models.NewScenarioBatch(n, 0, seed)
		for _, p := range e.line.Parameters {
			b.Params[p.Name] = filled()
		}
		for _, d := range e.line.Market {
			b.Market[d.Name] = filled()
		}
		for _, d := range e.line.Noise {
			b.Noise[d.Name] = filled()
		}
		ev.Batch = b
	}
	return ev
}

// place copies a chunk's evaluation into the merged outputs at offset. Maps
// of out are only read here, so concurrent calls on disjoint ranges are safe.
func place(out, ev *models.Evaluation, offset int, keepInputs bool) {
	copy(out.Process.Yield[offset:], ev.Process.Yield)
	copy(out.Process.CycleTime[offset:], ev.Process.CycleTime)
	copy(out.Process.Failed[offset:], ev.Process.Failed)
	for name, dst := range out.Process.Quality {
		copy(dst[offset:], ev.Process.Quality[name])
	}
	copy(out.Cost.MaterialCost[offset:], ev.Cost.MaterialCost)
	copy(out.Cost.ConversionCost[offset:], ev.Cost.ConversionCost)
	copy(out.Cost.UnitCost[offset:], ev.Cost.UnitCost)
	copy(out.Cost.Margin[offset:], ev.Cost.Margin)
	copy(out.Objective.Values[offset:], ev.Objective.Values)

	if keepInputs {
		for _, ref := range out.Batch.Columns() {
			dst, _ := out.Batch.Column(ref.Kind, ref.Name)
			src, _ := ev.Batch.Column(ref.Kind, ref.Name)
			copy(dst[offset:], src)
		}
	}
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
