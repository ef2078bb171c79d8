package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

func TestYieldOverCostPenalizesFailures(t *testing.T) {
	tests := []struct {
		name    string
		penalty float64
		want    []float64
	}{
		{"zero penalty", 0, []float64{2, 0, 0.5}},
		{"half penalty", 0.5, []float64{2, 1.5, 0.5}},
		{"no penalty", 1, []float64{2, 3, 0.5}},
	}

	p := models.NewProcessOutcome(3)
	copy(p.Yield, []float64{10, 30, 5})
	p.Failed[1] = true
	c := &models.CostOutcome{UnitCost: []float64{5, 10, 10}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(config.Objective{FailurePenalty: tt.penalty})
			s, err := f.Score(p, c)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, s.Values, 1e-12)
		})
	}
}

func TestScoreShapeMismatch(t *testing.T) {
	_, err := New(config.Objective{}).Score(models.NewProcessOutcome(2), &models.CostOutcome{UnitCost: []float64{1}})
	var shapeErr *models.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "unit_cost", shapeErr.Column)
}

func TestSummarize(t *testing.T) {
	p := models.NewProcessOutcome(4)
	p.Failed[0] = true
	agg := Summarize(p, &models.ObjectiveScore{Values: []float64{0, 1, 2, 3}})
	assert.InDelta(t, 1.5, agg.Mean, 1e-12)
	assert.InDelta(t, 0.25, agg.FailureRate, 1e-12)

	assert.Equal(t, Aggregate{}, Summarize(models.NewProcessOutcome(0), &models.ObjectiveScore{}))
}
