package models

import (
	"fmt"
	"sort"
)

// Column kinds of a ScenarioBatch.
const (
	KindParam  = "param"
	KindMarket = "market"
	KindNoise  = "noise"
)

// Outcome names that every evaluation exposes besides the quality metrics.
const (
	OutcomeYield        = "yield"
	OutcomeCycleTime    = "cycle_time"
	OutcomeMaterialCost = "material_cost"
	OutcomeUnitCost     = "unit_cost"
	OutcomeMargin       = "margin"
	OutcomeObjective    = "objective"
)

// ScenarioBatch is N independent scenarios stored column-wise. Index i of
// every column refers to the same scenario.
type ScenarioBatch struct {
	N      int
	Offset int
	Seed   uint64
	Params map[string][]float64
	Market map[string][]float64
	Noise  map[string][]float64
}

// NewScenarioBatch allocates an empty batch of n scenarios starting at
// global index offset.
func NewScenarioBatch(n, offset int, seed uint64) *ScenarioBatch {
	return &ScenarioBatch{
		N:      n,
		Offset: offset,
		Seed:   seed,
		Params: make(map[string][]float64),
		Market: make(map[string][]float64),
		Noise:  make(map[string][]float64),
	}
}

// ColumnRef names one input column.
type ColumnRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Validate checks that every column has exactly N entries.
func (b *ScenarioBatch) Validate() error {
	if b.N <= 0 {
		return &ShapeError{Source: "batch", Column: "N", Len: b.N, Want: 1}
	}
	for _, ref := range b.Columns() {
		col, _ := b.Column(ref.Kind, ref.Name)
		if len(col) != b.N {
			return &ShapeError{Source: "batch", Column: ref.Kind + "." + ref.Name, Len: len(col), Want: b.N}
		}
	}
	return nil
}

// Column returns the named column of the given kind.
func (b *ScenarioBatch) Column(kind, name string) ([]float64, bool) {
	var m map[string][]float64
	switch kind {
	case KindParam:
		m = b.Params
	case KindMarket:
		m = b.Market
	case KindNoise:
		m = b.Noise
	}
	col, ok := m[name]
	return col, ok
}

// Columns lists every input column, params first, each group sorted by name.
func (b *ScenarioBatch) Columns() []ColumnRef {
	var refs []ColumnRef
	for _, g := range []struct {
		kind string
		m    map[string][]float64
	}{{KindParam, b.Params}, {KindMarket, b.Market}, {KindNoise, b.Noise}} {
		names := make([]string, 0, len(g.m))
		for name := range g.m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			refs = append(refs, ColumnRef{Kind: g.kind, Name: name})
		}
	}
	return refs
}

// ProcessOutcome is the physics result of a batch. It is never mutated after
// the physics model returns it.
type ProcessOutcome struct {
	Yield     []float64
	CycleTime []float64
	Quality   map[string][]float64
	Failed    []bool
}

// NewProcessOutcome allocates outcome columns for n scenarios.
func NewProcessOutcome(n int, quality ...string) *ProcessOutcome {
	out := &ProcessOutcome{
		Yield:     make([]float64, n),
		CycleTime: make([]float64, n),
		Quality:   make(map[string][]float64, len(quality)),
		Failed:    make([]bool, n),
	}
	for _, q := range quality {
		out.Quality[q] = make([]float64, n)
	}
	return out
}

// Len is the number of scenarios.
func (o *ProcessOutcome) Len() int {
	return len(o.Yield)
}

// Validate checks that all columns are length n.
func (o *ProcessOutcome) Validate(n int) error {
	check := func(name string, l int) error {
		if l != n {
			return &ShapeError{Source: "process", Column: name, Len: l, Want: n}
		}
		return nil
	}
	if err := check(OutcomeYield, len(o.Yield)); err != nil {
		return err
	}
	if err := check(OutcomeCycleTime, len(o.CycleTime)); err != nil {
		return err
	}
	if err := check("failed", len(o.Failed)); err != nil {
		return err
	}
	for name, col := range o.Quality {
		if err := check(name, len(col)); err != nil {
			return err
		}
	}
	return nil
}

// FailureRate is the fraction of failed scenarios.
func (o *ProcessOutcome) FailureRate() float64 {
	if len(o.Failed) == 0 {
		return 0
	}
	failed := 0
	for _, f := range o.Failed {
		if f {
			failed++
		}
	}
	return float64(failed) / float64(len(o.Failed))
}

// CostOutcome is the per-scenario cost breakdown.
type CostOutcome struct {
	MaterialCost   []float64
	ConversionCost []float64
	UnitCost       []float64
	Margin         []float64
}

// ObjectiveScore holds one scalar score per scenario.
type ObjectiveScore struct {
	Values []float64
}

// Evaluation bundles everything computed for a batch. Batch is nil when the
// inputs were dropped after evaluation.
type Evaluation struct {
	Batch     *ScenarioBatch
	Process   *ProcessOutcome
	Cost      *CostOutcome
	Objective *ObjectiveScore
}

// Len is the number of scenarios evaluated.
func (e *Evaluation) Len() int {
	return e.Process.Len()
}

// Outcome resolves an outcome column by name: yield, cycle_time, the cost
// columns, objective, or a quality metric.
func (e *Evaluation) Outcome(name string) ([]float64, error) {
	switch name {
	case OutcomeYield:
		return e.Process.Yield, nil
	case OutcomeCycleTime:
		return e.Process.CycleTime, nil
	case OutcomeMaterialCost:
		return e.Cost.MaterialCost, nil
	case OutcomeUnitCost:
		return e.Cost.UnitCost, nil
	case OutcomeMargin:
		return e.Cost.Margin, nil
	case OutcomeObjective:
		return e.Objective.Values, nil
	}
	if col, ok := e.Process.Quality[name]; ok {
		return col, nil
	}
	return nil, fmt.Errorf("unknown outcome %q", name)
}

// ShapeError reports index-misaligned columns.
type ShapeError struct {
	Source string
	Column string
	Len    int
	Want   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch in %s column %s: length %d, want %d", e.Source, e.Column, e.Len, e.Want)
}
