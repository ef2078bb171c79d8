package simd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/processline-sim/internal/engine"
	"github.com/GoSim-25-26J-441/processline-sim/internal/improvement"
	"github.com/GoSim-25-26J-441/processline-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/processline-sim/internal/sensitivity"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

const (
	// DefaultScenarios is used when a request leaves N at zero.
	DefaultScenarios = 10000
	// DefaultMaxScenarios caps N per run so one request cannot exhaust memory.
	DefaultMaxScenarios = 1_000_000
	// DefaultMaxSweepScenarios caps the scenarios of one sweep request across
	// all of its candidates and refinement rounds.
	DefaultMaxSweepScenarios = 50_000_000
)

// LineInfo describes a registered product line.
type LineInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Model       string             `json:"model"`
	Target      string             `json:"target"`
	Parameters  []config.Parameter `json:"parameters"`
	Outcomes    []string           `json:"outcomes"`
	Sweep       *config.Grid       `json:"sweep,omitempty"`
}

// EvaluateRequest runs one Monte Carlo batch at fixed setpoints.
type EvaluateRequest struct {
	Line            string                         `json:"line"`
	N               int                            `json:"n"`
	Seed            *uint64                        `json:"seed,omitempty"`
	Setpoints       map[string]float64             `json:"setpoints,omitempty"`
	Explore         []string                       `json:"explore,omitempty"`
	MarketOverrides map[string]config.Distribution `json:"market_overrides,omitempty"`
}

// SweepRequest scans a setpoint grid.
type SweepRequest struct {
	Line            string                         `json:"line"`
	N               int                            `json:"n"`
	Seed            *uint64                        `json:"seed,omitempty"`
	Grids           []config.Grid                  `json:"grids,omitempty"`
	Setpoints       map[string]float64             `json:"setpoints,omitempty"`
	MarketOverrides map[string]config.Distribution `json:"market_overrides,omitempty"`
	Target          string                         `json:"target,omitempty"`
	RefineRounds    int                            `json:"refine_rounds,omitempty"`
}

// SweepResponse wraps the sweep result. Reason is set when no candidate was
// feasible.
type SweepResponse struct {
	*models.SweepResult
	InfeasibleReason string `json:"infeasible_reason,omitempty"`
}

// SensitivityRequest ranks the inputs driving an outcome.
type SensitivityRequest struct {
	Line            string                         `json:"line"`
	N               int                            `json:"n"`
	Seed            *uint64                        `json:"seed,omitempty"`
	Outcome         string                         `json:"outcome,omitempty"`
	Setpoints       map[string]float64             `json:"setpoints,omitempty"`
	Explore         []string                       `json:"explore,omitempty"`
	MarketOverrides map[string]config.Distribution `json:"market_overrides,omitempty"`
}

// SensitivityResponse lists drivers strongest first.
type SensitivityResponse struct {
	RunID       string               `json:"run_id"`
	ProductLine string               `json:"product_line"`
	Outcome     string               `json:"outcome"`
	N           int                  `json:"n"`
	Seed        uint64               `json:"seed"`
	Mean        sensitivity.Interval `json:"mean"`
	Drivers     []sensitivity.Driver `json:"drivers"`
}

// Service runs simulations against a fixed registry. It keeps no per-run
// state, so every method is safe for concurrent use.
type Service struct {
	registry *config.Registry
	engines  map[string]*engine.Engine
	recorder *metrics.Recorder
	logger   *slog.Logger
	maxN     int
	maxSweep int
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	recorder *metrics.Recorder
	logger   *slog.Logger
	maxN     int
	maxSweep int
	engine   []engine.Option
}

// WithMetrics instruments every engine and request.
func WithMetrics(r *metrics.Recorder) ServiceOption {
	return func(o *serviceOptions) { o.recorder = r }
}

// WithServiceLogger sets the logger used by the service and its engines.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(o *serviceOptions) { o.logger = l }
}

// WithMaxScenarios caps N per request.
func WithMaxScenarios(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxN = n
		}
	}
}

// WithMaxSweepScenarios caps the total scenarios per sweep request.
func WithMaxSweepScenarios(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxSweep = n
		}
	}
}

// WithEngineOptions passes extra options to every engine.
func WithEngineOptions(opts ...engine.Option) ServiceOption {
	return func(o *serviceOptions) { o.engine = append(o.engine, opts...) }
}

// NewService builds one engine per registered line up front, so a bad line
// definition fails at startup rather than on the first request.
func NewService(reg *config.Registry, opts ...ServiceOption) (*Service, error) {
	o := serviceOptions{logger: logger.Default, maxN: DefaultMaxScenarios, maxSweep: DefaultMaxSweepScenarios}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{
		registry: reg,
		engines:  make(map[string]*engine.Engine),
		recorder: o.recorder,
		logger:   o.logger,
		maxN:     o.maxN,
		maxSweep: o.maxSweep,
	}
	engineOpts := append([]engine.Option{engine.WithRecorder(o.recorder), engine.WithLogger(o.logger)}, o.engine...)
	for _, name := range reg.Names() {
		pl, err := reg.Line(name)
		if err != nil {
			return nil, err
		}
		e, err := engine.New(pl, engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("build engine for %s: %w", name, err)
		}
		s.engines[name] = e
	}
	return s, nil
}

// Recorder returns the service's metrics recorder, which may be nil.
func (s *Service) Recorder() *metrics.Recorder {
	return s.recorder
}

// Lines lists the registered product lines in name order.
func (s *Service) Lines() []LineInfo {
	var lines []LineInfo
	for _, name := range s.registry.Names() {
		e := s.engines[name]
		pl := e.Line()
		lines = append(lines, LineInfo{
			Name:        pl.Name,
			Description: pl.Description,
			Model:       pl.Model,
			Target:      pl.RankingTarget(),
			Parameters:  pl.Parameters,
			Outcomes:    e.Outcomes(),
			Sweep:       pl.Sweep,
		})
	}
	return lines
}

func (s *Service) engineFor(line string) (*engine.Engine, error) {
	e, ok := s.engines[line]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProductLine, line)
	}
	return e, nil
}

func (s *Service) scenarios(n int) (int, error) {
	if n == 0 {
		return DefaultScenarios, nil
	}
	if n > s.maxN {
		return 0, &engine.SamplingError{Variable: "n", Reason: fmt.Sprintf("scenario count %d exceeds limit %d", n, s.maxN)}
	}
	return n, nil
}

// Evaluate runs the engine once and returns the reduced summary.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (summary *models.Summary, err error) {
	start := time.Now()
	defer func() { s.recorder.ObserveRun(req.Line, "evaluate", err, time.Since(start)) }()

	e, err := s.engineFor(req.Line)
	if err != nil {
		return nil, err
	}
	n, err := s.scenarios(req.N)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx, engine.RunSpec{
		N:               n,
		Seed:            engine.SeedFrom(req.Seed),
		Setpoints:       req.Setpoints,
		Explore:         req.Explore,
		MarketOverrides: req.MarketOverrides,
	})
	if err != nil {
		return nil, err
	}
	return res.Summary, nil
}

// Sweep scans the requested grid. An infeasible sweep is not an error here:
// the full result comes back with InfeasibleReason set.
func (s *Service) Sweep(ctx context.Context, req SweepRequest) (resp *SweepResponse, err error) {
	start := time.Now()
	defer func() { s.recorder.ObserveRun(req.Line, "sweep", err, time.Since(start)) }()

	e, err := s.engineFor(req.Line)
	if err != nil {
		return nil, err
	}
	n, err := s.scenarios(req.N)
	if err != nil {
		return nil, err
	}
	opts := []improvement.Option{
		improvement.WithRecorder(s.recorder),
		improvement.WithLogger(s.logger),
		improvement.WithScenarioBudget(s.maxSweep),
	}
	if req.Target != "" {
		target, err := improvement.NewRankingTarget(req.Target)
		if err != nil {
			return nil, err
		}
		opts = append(opts, improvement.WithTarget(target))
	}
	optimizer, err := improvement.NewSweepOptimizer(e, opts...)
	if err != nil {
		return nil, err
	}

	result, err := optimizer.Sweep(ctx, improvement.SweepSpec{
		Grids:           req.Grids,
		N:               n,
		Seed:            engine.SeedFrom(req.Seed),
		Setpoints:       req.Setpoints,
		MarketOverrides: req.MarketOverrides,
		RefineRounds:    req.RefineRounds,
	})
	var infeasible *improvement.InfeasibleResult
	if errors.As(err, &infeasible) {
		return &SweepResponse{SweepResult: infeasible.Result, InfeasibleReason: infeasible.Reason}, nil
	}
	if err != nil {
		return nil, err
	}
	return &SweepResponse{SweepResult: result}, nil
}

// Sensitivity runs the engine with inputs kept and ranks them against the
// requested outcome, objective by default.
func (s *Service) Sensitivity(ctx context.Context, req SensitivityRequest) (resp *SensitivityResponse, err error) {
	start := time.Now()
	defer func() { s.recorder.ObserveRun(req.Line, "sensitivity", err, time.Since(start)) }()

	e, err := s.engineFor(req.Line)
	if err != nil {
		return nil, err
	}
	outcome := req.Outcome
	if outcome == "" {
		outcome = models.OutcomeObjective
	}
	if !e.HasOutcome(outcome) {
		return nil, config.Errorf(req.Line, "outcome", "unknown outcome %q", outcome)
	}
	n, err := s.scenarios(req.N)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx, engine.RunSpec{
		N:               n,
		Seed:            engine.SeedFrom(req.Seed),
		Setpoints:       req.Setpoints,
		Explore:         req.Explore,
		MarketOverrides: req.MarketOverrides,
		KeepInputs:      true,
	})
	if err != nil {
		return nil, err
	}
	drivers, err := sensitivity.Rank(res.Evaluation, outcome)
	if err != nil {
		return nil, err
	}
	values, err := res.Evaluation.Outcome(outcome)
	if err != nil {
		return nil, err
	}
	mean, err := sensitivity.ConfidenceInterval(values, 0.95)
	if err != nil {
		return nil, err
	}
	return &SensitivityResponse{
		RunID:       res.Summary.RunID,
		ProductLine: req.Line,
		Outcome:     outcome,
		N:           n,
		Seed:        res.Summary.Seed,
		Mean:        mean,
		Drivers:     drivers,
	}, nil
}
