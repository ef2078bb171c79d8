package improvement

import (
	"github.com/GoSim-25-26J-441/processline-sim/internal/engine"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// RankingTarget reduces a candidate's Monte Carlo run to the scalar the
// sweep maximizes.
type RankingTarget interface {
	// Aggregate computes the ranking value of a finished run.
	Aggregate(res *engine.Result) float64

	// Name returns the name of the ranking target.
	Name() string
}

// NewRankingTarget creates a ranking target from its configured name. An
// empty name selects the mean objective.
func NewRankingTarget(name string) (RankingTarget, error) {
	switch name {
	case config.TargetMeanObjective, "":
		return MeanObjectiveTarget{}, nil
	case config.TargetMeanYield:
		return MeanYieldTarget{}, nil
	case config.TargetMedianYield:
		return MedianYieldTarget{}, nil
	case config.TargetP10Objective:
		return P10ObjectiveTarget{}, nil
	default:
		return nil, &UnknownTargetError{Target: name}
	}
}

// MeanObjectiveTarget maximizes the mean yield-over-cost score.
type MeanObjectiveTarget struct{}

func (MeanObjectiveTarget) Name() string { return config.TargetMeanObjective }

func (MeanObjectiveTarget) Aggregate(res *engine.Result) float64 {
	return res.Summary.Objective.Mean
}

// MeanYieldTarget maximizes mean yield regardless of cost.
type MeanYieldTarget struct{}

func (MeanYieldTarget) Name() string { return config.TargetMeanYield }

func (MeanYieldTarget) Aggregate(res *engine.Result) float64 {
	return res.Summary.Yield.Mean
}

// MedianYieldTarget maximizes the median yield, which ignores a heavy tail
// of failed batches.
type MedianYieldTarget struct{}

func (MedianYieldTarget) Name() string { return config.TargetMedianYield }

func (MedianYieldTarget) Aggregate(res *engine.Result) float64 {
	return res.Summary.Yield.P50
}

// P10ObjectiveTarget maximizes the 10th percentile of the objective, a
// risk-averse choice that favours setpoints with a good worst case.
type P10ObjectiveTarget struct{}

func (P10ObjectiveTarget) Name() string { return config.TargetP10Objective }

func (P10ObjectiveTarget) Aggregate(res *engine.Result) float64 {
	return utils.Percentile(utils.Sorted(res.Evaluation.Objective.Values), 10)
}
