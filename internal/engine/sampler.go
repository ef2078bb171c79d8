package engine

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// RunSpec describes one Monte Carlo run of a product line.
type RunSpec struct {
	N    int
	Seed Seed
	// Setpoints override parameter nominals. Parameters not listed run at
	// their nominal value.
	Setpoints map[string]float64
	// Explore lists parameters drawn uniformly over their configured range
	// instead of being held at a setpoint.
	Explore []string
	// MarketOverrides replace configured market distributions by name.
	MarketOverrides map[string]config.Distribution
	// KeepInputs retains the sampled columns in the returned evaluation.
	KeepInputs bool
}

// sampledColumn is one input column and how to draw it. Drawn values are
// shifted by offset, which carries the setpoint of a jittered parameter.
type sampledColumn struct {
	kind   string
	name   string
	dist   config.Distribution
	offset float64
}

// plan is a RunSpec resolved against the line configuration.
type plan struct {
	setpoints map[string]float64
	columns   []sampledColumn
}

func (e *Engine) plan(spec RunSpec) (*plan, error) {
	for name, v := range spec.Setpoints {
		p, ok := e.line.Parameter(name)
		if !ok {
			return nil, &SamplingError{Variable: name, Reason: "unknown parameter"}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SamplingError{Variable: name, Reason: "setpoint is not finite"}
		}
		if v < p.Min || v > p.Max {
			return nil, &SamplingError{Variable: name, Reason: fmt.Sprintf("setpoint %g outside configured range [%g, %g]", v, p.Min, p.Max)}
		}
	}
	explore := make(map[string]bool, len(spec.Explore))
	for _, name := range spec.Explore {
		if _, ok := e.line.Parameter(name); !ok {
			return nil, &SamplingError{Variable: name, Reason: "unknown parameter"}
		}
		explore[name] = true
	}
	for name, d := range spec.MarketOverrides {
		if _, ok := e.line.MarketInput(name); !ok {
			return nil, &SamplingError{Variable: name, Reason: "unknown market input"}
		}
		if err := validateDistribution(name, d); err != nil {
			return nil, err
		}
	}

	p := &plan{setpoints: e.line.NominalSetpoints()}
	for name, v := range spec.Setpoints {
		p.setpoints[name] = v
	}

	for _, param := range e.line.Parameters {
		col := sampledColumn{kind: models.KindParam, name: param.Name}
		switch {
		case explore[param.Name]:
			col.dist = config.Distribution{Kind: config.DistUniform, Min: param.Min, Max: param.Max}
			delete(p.setpoints, param.Name)
		case param.Jitter != nil:
			col.dist = *param.Jitter
			col.offset = p.setpoints[param.Name]
		default:
			col.dist = config.Distribution{Kind: config.DistConstant, Mean: p.setpoints[param.Name]}
		}
		p.columns = append(p.columns, col)
	}
	for _, d := range e.line.Market {
		if o, ok := spec.MarketOverrides[d.Name]; ok {
			o.Name = d.Name
			d = o
		}
		p.columns = append(p.columns, sampledColumn{kind: models.KindMarket, name: d.Name, dist: d})
	}
	for _, d := range e.line.Noise {
		p.columns = append(p.columns, sampledColumn{kind: models.KindNoise, name: d.Name, dist: d})
	}
	return p, nil
}

// sample draws scenarios [offset, offset+n). Every column draws from its own
// stream keyed by (seed, column, offset), so a chunk's values do not depend
// on which worker runs it or on the setpoints of other columns.
func (p *plan) sample(n, offset int, seed uint64) *models.ScenarioBatch {
	b := models.NewScenarioBatch(n, offset, seed)
	for _, c := range p.columns {
		col := make([]float64, n)
		s := utils.NewStream(seed, utils.StreamKey(c.kind+"."+c.name, offset))
		draw(col, c.dist, c.offset, s)
		switch c.kind {
		case models.KindParam:
			b.Params[c.name] = col
		case models.KindMarket:
			b.Market[c.name] = col
		case models.KindNoise:
			b.Noise[c.name] = col
		}
	}
	return b
}

// SampleBatch draws scenarios [offset, offset+n) of the run seeded with seed.
func (e *Engine) SampleBatch(n, offset int, seed uint64, spec RunSpec) (*models.ScenarioBatch, error) {
	if n <= 0 {
		return nil, &SamplingError{Variable: "n", Reason: fmt.Sprintf("scenario count must be positive, got %d", n)}
	}
	p, err := e.plan(spec)
	if err != nil {
		return nil, err
	}
	return p.sample(n, offset, seed), nil
}

func draw(dst []float64, d config.Distribution, offset float64, s *utils.Stream) {
	switch d.Kind {
	case config.DistNormal:
		for i := range dst {
			dst[i] = offset + s.NormFloat64(d.Mean, d.StdDev)
		}
	case config.DistUniform:
		for i := range dst {
			dst[i] = offset + s.UniformFloat64(d.Min, d.Max)
		}
	case config.DistBernoulli:
		for i := range dst {
			dst[i] = offset + s.BernoulliFloat64(d.P)
		}
	default:
		for i := range dst {
			dst[i] = offset + d.Mean
		}
	}
}

func validateDistribution(variable string, d config.Distribution) error {
	bad := func(reason string) error {
		return &SamplingError{Variable: variable, Distribution: d.String(), Reason: reason}
	}
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	switch d.Kind {
	case config.DistNormal:
		if !finite(d.Mean, d.StdDev) {
			return bad("parameters must be finite")
		}
		if d.StdDev < 0 {
			return bad("stddev must be non-negative")
		}
	case config.DistUniform:
		if !finite(d.Min, d.Max) {
			return bad("parameters must be finite")
		}
		if d.Min > d.Max {
			return bad("min must not exceed max")
		}
	case config.DistBernoulli:
		if !(d.P >= 0 && d.P <= 1) {
			return bad("p must lie in [0, 1]")
		}
	case config.DistConstant:
		if !finite(d.Mean) {
			return bad("value must be finite")
		}
	default:
		return bad(fmt.Sprintf("unknown distribution kind %q", d.Kind))
	}
	return nil
}
