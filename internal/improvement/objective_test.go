package improvement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/processline-sim/internal/engine"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

func TestNewRankingTarget(t *testing.T) {
	cases := map[string]string{
		"":                         config.TargetMeanObjective,
		config.TargetMeanObjective: config.TargetMeanObjective,
		config.TargetMeanYield:     config.TargetMeanYield,
		config.TargetMedianYield:   config.TargetMedianYield,
		config.TargetP10Objective:  config.TargetP10Objective,
	}
	for name, want := range cases {
		target, err := NewRankingTarget(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, target.Name())
	}

	_, err := NewRankingTarget("max_throughput")
	var unknown *UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "max_throughput", unknown.Target)
	assert.Contains(t, err.Error(), "max_throughput")
}

func TestRankingTargetAggregate(t *testing.T) {
	objective := make([]float64, 100)
	for i := range objective {
		objective[i] = float64(i)
	}
	res := &engine.Result{
		Evaluation: &models.Evaluation{Objective: &models.ObjectiveScore{Values: objective}},
		Summary: &models.Summary{
			Yield:     models.Stats{Mean: 34.5, P50: 35},
			Objective: models.Stats{Mean: 49.5},
		},
	}

	assert.Equal(t, 49.5, MeanObjectiveTarget{}.Aggregate(res))
	assert.Equal(t, 34.5, MeanYieldTarget{}.Aggregate(res))
	assert.Equal(t, 35.0, MedianYieldTarget{}.Aggregate(res))

	p10 := P10ObjectiveTarget{}.Aggregate(res)
	assert.InDelta(t, 10, p10, 1)
	assert.Less(t, p10, MeanObjectiveTarget{}.Aggregate(res))
}
