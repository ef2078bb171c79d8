package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// ConvergenceStrategy decides when grid refinement can stop. History holds
// one step per refinement round, round 0 being the initial grid optimum;
// aggregates are maximized.
type ConvergenceStrategy interface {
	// CheckConvergence checks if refinement has converged based on history
	CheckConvergence(history []models.RefinementStep) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection
type ConvergenceConfig struct {
	// NoImprovementRounds is the number of rounds without a better aggregate before stopping
	NoImprovementRounds int
	// ImprovementThreshold is the minimum relative improvement to consider significant
	ImprovementThreshold float64
	// ScoreTolerance is the absolute tolerance for aggregates to be considered equal
	ScoreTolerance float64
	// MinRounds is the number of steps required before convergence can be detected
	MinRounds int
	// PlateauRounds is the number of rounds with similar aggregates before stopping
	PlateauRounds int
}

// DefaultConvergenceConfig returns a default convergence configuration
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementRounds:  1,
		ImprovementThreshold: 0.001, // 0.1%
		ScoreTolerance:       1e-9,
		MinRounds:            2,
		PlateauRounds:        3,
	}
}

// NoImprovementStrategy converges when the best aggregate has not moved for
// N rounds.
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []models.RefinementStep) (bool, string) {
	if len(history) < s.config.MinRounds {
		return false, ""
	}

	best := math.Inf(-1)
	bestRound := -1
	for i, step := range history {
		if step.Aggregate > best {
			best = step.Aggregate
			bestRound = i
		}
	}
	if bestRound < 0 {
		return false, ""
	}

	since := len(history) - 1 - bestRound
	if since >= s.config.NoImprovementRounds {
		return true, fmt.Sprintf("no improvement for %d rounds (best at round %d)", since, history[bestRound].Round)
	}
	return false, ""
}

// PlateauStrategy converges when the last rounds all landed within
// ScoreTolerance of each other.
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []models.RefinementStep) (bool, string) {
	if len(history) < s.config.MinRounds || len(history) < s.config.PlateauRounds || s.config.PlateauRounds < 2 {
		return false, ""
	}

	recent := history[len(history)-s.config.PlateauRounds:]
	lo, hi := recent[0].Aggregate, recent[0].Aggregate
	for _, step := range recent {
		lo = math.Min(lo, step.Aggregate)
		hi = math.Max(hi, step.Aggregate)
	}
	if hi-lo <= s.config.ScoreTolerance {
		return true, fmt.Sprintf("aggregate plateaued for %d rounds (range: %.6g)", s.config.PlateauRounds, hi-lo)
	}
	return false, ""
}

// ThresholdStrategy converges when the last round improved the aggregate by
// less than ImprovementThreshold, relative.
type ThresholdStrategy struct {
	config *ConvergenceConfig
}

// NewThresholdStrategy creates a new improvement threshold convergence strategy
func NewThresholdStrategy(config *ConvergenceConfig) *ThresholdStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &ThresholdStrategy{config: config}
}

func (s *ThresholdStrategy) Name() string {
	return "improvement_threshold"
}

func (s *ThresholdStrategy) CheckConvergence(history []models.RefinementStep) (bool, string) {
	if len(history) < s.config.MinRounds || len(history) < 2 {
		return false, ""
	}

	prev := history[len(history)-2].Aggregate
	last := history[len(history)-1].Aggregate
	if prev == 0 {
		return false, ""
	}
	rel := (last - prev) / math.Abs(prev)
	if rel < s.config.ImprovementThreshold {
		return true, fmt.Sprintf("improvement below threshold (%.4f%% < %.4f%%)", rel*100, s.config.ImprovementThreshold*100)
	}
	return false, ""
}

// CombinedStrategy converges as soon as any of its strategies does.
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates a new combined convergence strategy
func NewCombinedStrategy(config *ConvergenceConfig) *CombinedStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &CombinedStrategy{
		strategies: []ConvergenceStrategy{
			NewNoImprovementStrategy(config),
			NewPlateauStrategy(config),
			NewThresholdStrategy(config),
		},
	}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []models.RefinementStep) (bool, string) {
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(history); converged {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), reason)
		}
	}
	return false, ""
}

// AddStrategy adds a custom strategy to the combined strategy
func (s *CombinedStrategy) AddStrategy(strategy ConvergenceStrategy) {
	s.strategies = append(s.strategies, strategy)
}
