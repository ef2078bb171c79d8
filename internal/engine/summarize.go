package engine

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/internal/capability"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// Describe reduces one outcome column to summary statistics with a 95%
// Student-t confidence interval on the mean.
func Describe(values []float64) models.Stats {
	n := len(values)
	if n == 0 {
		return models.Stats{}
	}
	mean, std := utils.MeanStdDev(values)
	sorted := utils.Sorted(values)
	s := models.Stats{
		Mean:   mean,
		StdDev: std,
		StdErr: std / math.Sqrt(float64(n)),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P05:    utils.Percentile(sorted, 5),
		P50:    utils.Percentile(sorted, 50),
		P95:    utils.Percentile(sorted, 95),
	}
	half := utils.TCritical(0.95, n) * s.StdErr
	s.CI95Low = mean - half
	s.CI95High = mean + half
	return s
}

// Summarize computes the statistics of a full evaluation: moments and
// percentiles of every outcome, the failure rate, and pass rate and
// capability of every spec limit.
func (e *Engine) Summarize(ev *models.Evaluation) (*models.Summary, error) {
	s := &models.Summary{
		ProductLine: e.line.Name,
		N:           ev.Len(),
		FailureRate: ev.Process.FailureRate(),
		Yield:       Describe(ev.Process.Yield),
		CycleTime:   Describe(ev.Process.CycleTime),
		Objective:   Describe(ev.Objective.Values),
		UnitCost:    Describe(ev.Cost.UnitCost),
		Margin:      Describe(ev.Cost.Margin),
		Quality:     make(map[string]models.Stats, len(ev.Process.Quality)),
	}

	for name, col := range ev.Process.Quality {
		s.Quality[name] = Describe(col)
	}

	for _, limit := range e.line.SpecLimits {
		values, err := ev.Outcome(limit.Outcome)
		if err != nil {
			return nil, err
		}
		mean, std := utils.MeanStdDev(values)
		s.Specs = append(s.Specs, capability.Evaluate(values, mean, std, limit))
	}
	return s, nil
}
