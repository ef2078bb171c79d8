package config

import (
	"fmt"
	"sort"
)

// Registry is the process-wide set of product line definitions.
// It is built once by ParseRegistryYAML or LoadRegistry and must not be
// mutated afterwards.
type Registry struct {
	LogLevel     string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	ProductLines []ProductLine `yaml:"product_lines" validate:"required,min=1,dive"`

	index map[string]*ProductLine
}

// ProductLine describes one processing line: which physics strategy it runs,
// its tunable parameters, stochastic inputs, cost structure and targets.
type ProductLine struct {
	Name        string         `yaml:"name" json:"name" validate:"required"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Model       string         `yaml:"model" json:"model" validate:"required"`
	Physics     Physics        `yaml:"physics" json:"physics"`
	Parameters  []Parameter    `yaml:"parameters" json:"parameters" validate:"required,min=1,dive"`
	Noise       []Distribution `yaml:"noise,omitempty" json:"noise,omitempty" validate:"dive"`
	Market      []Distribution `yaml:"market,omitempty" json:"market,omitempty" validate:"dive"`
	Cost        Cost           `yaml:"cost" json:"cost"`
	Objective   Objective      `yaml:"objective" json:"objective"`
	SpecLimits  []SpecLimit    `yaml:"spec_limits" json:"spec_limits" validate:"required,min=1,dive"`
	Sweep       *Grid          `yaml:"sweep,omitempty" json:"sweep,omitempty"`
}

// Physics holds the named constants consumed by the line's physics model.
type Physics struct {
	Constants map[string]float64 `yaml:"constants" json:"constants" validate:"required"`
}

// Parameter is a tunable process parameter. Jitter, when set, is added to
// the setpoint of every scenario to model equipment variance.
type Parameter struct {
	Name    string        `yaml:"name" json:"name" validate:"required"`
	Unit    string        `yaml:"unit,omitempty" json:"unit,omitempty"`
	Min     float64       `yaml:"min" json:"min"`
	Max     float64       `yaml:"max" json:"max" validate:"gtefield=Min"`
	Nominal float64       `yaml:"nominal" json:"nominal"`
	Jitter  *Distribution `yaml:"jitter,omitempty" json:"jitter,omitempty"`
}

// Distribution kinds understood by the sampler.
const (
	DistNormal    = "normal"
	DistUniform   = "uniform"
	DistBernoulli = "bernoulli"
	DistConstant  = "constant"
)

// Distribution declares how a stochastic input is drawn.
type Distribution struct {
	Name   string  `yaml:"name,omitempty" json:"name,omitempty"`
	Kind   string  `yaml:"distribution" json:"distribution" validate:"required,oneof=normal uniform bernoulli constant"`
	Mean   float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev float64 `yaml:"stddev,omitempty" json:"stddev,omitempty"`
	Min    float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty" json:"max,omitempty"`
	P      float64 `yaml:"p,omitempty" json:"p,omitempty"`
}

func (d Distribution) String() string {
	switch d.Kind {
	case DistNormal:
		return fmt.Sprintf("normal(mean=%g, stddev=%g)", d.Mean, d.StdDev)
	case DistUniform:
		return fmt.Sprintf("uniform(min=%g, max=%g)", d.Min, d.Max)
	case DistBernoulli:
		return fmt.Sprintf("bernoulli(p=%g)", d.P)
	case DistConstant:
		return fmt.Sprintf("constant(%g)", d.Mean)
	default:
		return d.Kind
	}
}

// Cost model kinds.
const (
	CostFormulation = "formulation"
	CostBlend       = "blend"
)

// Cost holds the constants of the line's cost model. Ratios are kilograms of
// raw material per kilogram of output at ReferenceYield; when ReferenceYield
// is zero material usage does not scale with yield. SellingMarket, when set,
// names a market input that replaces the fixed SellingPrice, so margin is
// measured against a stochastic quote.
type Cost struct {
	Model          string       `yaml:"model" json:"model" validate:"required,oneof=formulation blend"`
	ConversionCost float64      `yaml:"conversion_cost" json:"conversion_cost" validate:"gt=0"`
	HourlyCost     float64      `yaml:"hourly_cost,omitempty" json:"hourly_cost,omitempty" validate:"gte=0"`
	SellingPrice   float64      `yaml:"selling_price,omitempty" json:"selling_price,omitempty" validate:"required_without=SellingMarket,gte=0"`
	SellingMarket  string       `yaml:"selling_market,omitempty" json:"selling_market,omitempty"`
	ReferenceYield float64      `yaml:"reference_yield,omitempty" json:"reference_yield,omitempty" validate:"gte=0"`
	Ingredients    []Ingredient `yaml:"ingredients,omitempty" json:"ingredients,omitempty" validate:"dive"`
	Blend          *Blend       `yaml:"blend,omitempty" json:"blend,omitempty"`
	Additives      []Additive   `yaml:"additives,omitempty" json:"additives,omitempty" validate:"dive"`
}

// Ingredient links a market price column to a fixed formulation ratio.
type Ingredient struct {
	Market string  `yaml:"market" json:"market" validate:"required"`
	Ratio  float64 `yaml:"ratio" json:"ratio" validate:"gt=0"`
}

// Blend is a two-ingredient formulation whose substitute share is a process
// parameter.
type Blend struct {
	Param            string  `yaml:"param" json:"param" validate:"required"`
	BaseMarket       string  `yaml:"base_market" json:"base_market" validate:"required"`
	SubstituteMarket string  `yaml:"substitute_market" json:"substitute_market" validate:"required"`
	Ratio            float64 `yaml:"ratio" json:"ratio" validate:"gt=0"`
	Surcharge        float64 `yaml:"surcharge,omitempty" json:"surcharge,omitempty" validate:"gte=0"`
}

// Additive is a dosed ingredient priced per unit of the dosage parameter.
type Additive struct {
	Param     string  `yaml:"param" json:"param" validate:"required"`
	UnitPrice float64 `yaml:"unit_price" json:"unit_price" validate:"gt=0"`
}

// Ranking targets accepted in Objective.Target.
const (
	TargetMeanYield     = "mean_yield"
	TargetMeanObjective = "mean_objective"
	TargetMedianYield   = "median_yield"
	TargetP10Objective  = "p10_objective"
)

// Objective configures the per-scenario score and the sweep ranking target.
type Objective struct {
	FailurePenalty float64  `yaml:"failure_penalty" json:"failure_penalty" validate:"gte=0,lte=1"`
	Target         string   `yaml:"target,omitempty" json:"target,omitempty" validate:"omitempty,oneof=mean_yield mean_objective median_yield p10_objective"`
	MaxFailureRate *float64 `yaml:"max_failure_rate,omitempty" json:"max_failure_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// SpecLimit is a specification window on a named outcome. Either bound may
// be omitted for one-sided limits.
type SpecLimit struct {
	Name    string   `yaml:"name" json:"name" validate:"required"`
	Outcome string   `yaml:"outcome" json:"outcome" validate:"required"`
	Lower   *float64 `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper   *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
	Nominal float64  `yaml:"nominal,omitempty" json:"nominal,omitempty"`
}

// Contains reports whether v lies inside the limit, bounds inclusive.
func (s SpecLimit) Contains(v float64) bool {
	if s.Lower != nil && v < *s.Lower {
		return false
	}
	if s.Upper != nil && v > *s.Upper {
		return false
	}
	return true
}

// Grid is a (start, stop, step) scan over one parameter.
type Grid struct {
	Parameter string  `yaml:"parameter" json:"parameter" validate:"required"`
	Start     float64 `yaml:"start" json:"start"`
	Stop      float64 `yaml:"stop" json:"stop" validate:"gtefield=Start"`
	Step      float64 `yaml:"step" json:"step" validate:"gt=0"`
}

// Line returns the product line with the given name.
func (r *Registry) Line(name string) (*ProductLine, error) {
	if pl, ok := r.index[name]; ok {
		return pl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProductLine, name)
}

// Names returns the registered product line names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.index))
	for name := range r.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) buildIndex() {
	r.index = make(map[string]*ProductLine, len(r.ProductLines))
	for i := range r.ProductLines {
		r.index[r.ProductLines[i].Name] = &r.ProductLines[i]
	}
}

// Parameter looks up a tunable parameter by name.
func (pl *ProductLine) Parameter(name string) (*Parameter, bool) {
	for i := range pl.Parameters {
		if pl.Parameters[i].Name == name {
			return &pl.Parameters[i], true
		}
	}
	return nil, false
}

// MarketInput looks up a market distribution by name.
func (pl *ProductLine) MarketInput(name string) (*Distribution, bool) {
	for i := range pl.Market {
		if pl.Market[i].Name == name {
			return &pl.Market[i], true
		}
	}
	return nil, false
}

// NominalSetpoints returns the nominal value of every parameter.
func (pl *ProductLine) NominalSetpoints() map[string]float64 {
	out := make(map[string]float64, len(pl.Parameters))
	for _, p := range pl.Parameters {
		out[p.Name] = p.Nominal
	}
	return out
}

// RankingTarget returns the configured sweep target, defaulting to the mean
// objective.
func (pl *ProductLine) RankingTarget() string {
	if pl.Objective.Target == "" {
		return TargetMeanObjective
	}
	return pl.Objective.Target
}
