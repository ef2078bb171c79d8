package improvement

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// Compare reports the change from the baseline point to the candidate.
// Improvement is judged on the ranking aggregate, which is maximized.
func Compare(baseline, candidate models.SweepPoint) models.Comparison {
	return models.Comparison{
		YieldDelta:       candidate.MeanYield - baseline.MeanYield,
		ObjectiveDelta:   candidate.MeanObjective - baseline.MeanObjective,
		UnitCostDelta:    candidate.MeanUnitCost - baseline.MeanUnitCost,
		FailureRateDelta: candidate.FailureRate - baseline.FailureRate,
		AggregateDelta:   candidate.Aggregate - baseline.Aggregate,
		Improvement:      candidate.Aggregate > baseline.Aggregate,
	}
}

// ImprovementPercentage is the relative gain of after over before, in
// percent. It is zero when before is zero.
func ImprovementPercentage(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / math.Abs(before) * 100
}
