// Package objective scores each scenario as yield over unit cost, scaled
// down for failed scenarios.
package objective

import (
	"gonum.org/v1/gonum/floats"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// Function reduces process and cost outcomes to one score per scenario.
type Function interface {
	Name() string
	Score(p *models.ProcessOutcome, c *models.CostOutcome) (*models.ObjectiveScore, error)
}

// YieldOverCost is objective_i = (yield_i / unit_cost_i) · w_i where w_i is
// 1 for passing scenarios and FailurePenalty for failed ones.
type YieldOverCost struct {
	FailurePenalty float64
}

// New builds the objective configured for a product line.
func New(obj config.Objective) *YieldOverCost {
	return &YieldOverCost{FailurePenalty: obj.FailurePenalty}
}

func (f *YieldOverCost) Name() string { return "yield_over_cost" }

func (f *YieldOverCost) Score(p *models.ProcessOutcome, c *models.CostOutcome) (*models.ObjectiveScore, error) {
	n := p.Len()
	if len(c.UnitCost) != n {
		return nil, &models.ShapeError{Source: "cost", Column: models.OutcomeUnitCost, Len: len(c.UnitCost), Want: n}
	}

	values := make([]float64, n)
	floats.DivTo(values, p.Yield, c.UnitCost)

	weights := make([]float64, n)
	for i, failed := range p.Failed {
		weights[i] = 1
		if failed {
			weights[i] = f.FailurePenalty
		}
	}
	floats.Mul(values, weights)
	return &models.ObjectiveScore{Values: values}, nil
}

// Aggregate is the population-level view of a score: the mean objective and
// the failure rate reported beside it.
type Aggregate struct {
	Mean        float64
	FailureRate float64
}

// Summarize computes the aggregate of a scored batch.
func Summarize(p *models.ProcessOutcome, s *models.ObjectiveScore) Aggregate {
	agg := Aggregate{FailureRate: p.FailureRate()}
	if len(s.Values) > 0 {
		agg.Mean = floats.Sum(s.Values) / float64(len(s.Values))
	}
	return agg
}
