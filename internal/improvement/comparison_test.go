package improvement

import (
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

func TestCompare(t *testing.T) {
	baseline := models.SweepPoint{
		Aggregate:     0.020,
		MeanYield:     32.6,
		MeanObjective: 0.020,
		MeanUnitCost:  1550,
		FailureRate:   0.30,
	}
	optimum := models.SweepPoint{
		Aggregate:     0.024,
		MeanYield:     37.1,
		MeanObjective: 0.024,
		MeanUnitCost:  1400,
		FailureRate:   0.01,
	}

	c := Compare(baseline, optimum)
	if !c.Improvement {
		t.Fatalf("expected improvement")
	}
	if math.Abs(c.YieldDelta-4.5) > 1e-9 {
		t.Fatalf("expected yield delta 4.5, got %f", c.YieldDelta)
	}
	if math.Abs(c.UnitCostDelta+150) > 1e-9 {
		t.Fatalf("expected unit cost delta -150, got %f", c.UnitCostDelta)
	}
	if math.Abs(c.FailureRateDelta+0.29) > 1e-9 {
		t.Fatalf("expected failure rate delta -0.29, got %f", c.FailureRateDelta)
	}

	if Compare(optimum, baseline).Improvement {
		t.Fatalf("expected no improvement in reverse")
	}
	if Compare(optimum, optimum).Improvement {
		t.Fatalf("equal aggregates are not an improvement")
	}
}

func TestImprovementPercentage(t *testing.T) {
	if got := ImprovementPercentage(100, 110); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected 10%%, got %f", got)
	}
	if got := ImprovementPercentage(-10, -5); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected 50%% for a less negative aggregate, got %f", got)
	}
	if got := ImprovementPercentage(0, 5); got != 0 {
		t.Fatalf("expected 0 for zero baseline, got %f", got)
	}
}
