package improvement

import (
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

func steps(aggregates ...float64) []models.RefinementStep {
	history := make([]models.RefinementStep, len(aggregates))
	for i, a := range aggregates {
		history[i] = models.RefinementStep{Round: i, Aggregate: a}
	}
	return history
}

func TestNoImprovementStrategy(t *testing.T) {
	config := &ConvergenceConfig{
		NoImprovementRounds: 2,
		MinRounds:           2,
	}
	strategy := NewNoImprovementStrategy(config)

	converged, reason := strategy.CheckConvergence(steps(10, 12, 12, 11))
	if !converged {
		t.Fatalf("expected convergence, got false")
	}
	if !strings.Contains(reason, "best at round 1") {
		t.Fatalf("unexpected reason %q", reason)
	}

	converged, _ = strategy.CheckConvergence(steps(10, 11, 12))
	if converged {
		t.Fatalf("expected no convergence (recent improvement), got true")
	}

	converged, _ = strategy.CheckConvergence(steps(10))
	if converged {
		t.Fatalf("expected no convergence below MinRounds")
	}
}

func TestPlateauStrategy(t *testing.T) {
	config := &ConvergenceConfig{
		PlateauRounds:  3,
		ScoreTolerance: 0.01,
		MinRounds:      2,
	}
	strategy := NewPlateauStrategy(config)

	converged, reason := strategy.CheckConvergence(steps(5, 100, 100.005, 100.002))
	if !converged {
		t.Fatalf("expected convergence (plateau), got false")
	}
	if reason == "" {
		t.Fatalf("expected convergence reason")
	}

	converged, _ = strategy.CheckConvergence(steps(100, 90, 95, 85))
	if converged {
		t.Fatalf("expected no convergence (varying aggregates), got true")
	}
}

func TestThresholdStrategy(t *testing.T) {
	config := &ConvergenceConfig{
		ImprovementThreshold: 0.01,
		MinRounds:            2,
	}
	strategy := NewThresholdStrategy(config)

	converged, _ := strategy.CheckConvergence(steps(100, 100.5))
	if !converged {
		t.Fatalf("expected convergence for 0.5%% gain under 1%% threshold")
	}

	converged, _ = strategy.CheckConvergence(steps(100, 110))
	if converged {
		t.Fatalf("expected no convergence for 10%% gain")
	}

	converged, _ = strategy.CheckConvergence(steps(0, 1))
	if converged {
		t.Fatalf("expected no convergence from a zero aggregate")
	}
}

func TestCombinedStrategy(t *testing.T) {
	strategy := NewCombinedStrategy(nil)

	converged, reason := strategy.CheckConvergence(steps(38.0, 38.0))
	if !converged {
		t.Fatalf("expected convergence with the default config")
	}
	if !strings.HasPrefix(reason, "no_improvement:") {
		t.Fatalf("expected the first strategy to report, got %q", reason)
	}

	converged, _ = strategy.CheckConvergence(steps(30, 38))
	if converged {
		t.Fatalf("expected no convergence after a large gain")
	}
}

type alwaysConverged struct{}

func (alwaysConverged) Name() string { return "always" }

func (alwaysConverged) CheckConvergence([]models.RefinementStep) (bool, string) {
	return true, "forced"
}

func TestCombinedStrategyAddStrategy(t *testing.T) {
	strategy := NewCombinedStrategy(&ConvergenceConfig{NoImprovementRounds: 10, MinRounds: 10, PlateauRounds: 10})
	strategy.AddStrategy(alwaysConverged{})

	converged, reason := strategy.CheckConvergence(steps(1, 2))
	if !converged || reason != "always: forced" {
		t.Fatalf("expected custom strategy to converge, got %v %q", converged, reason)
	}
}
