package improvement

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
)

func TestPointsDoNotDrift(t *testing.T) {
	points, err := Points(config.Grid{Parameter: "malt_dosage", Start: 0, Stop: 0.02, Step: 0.001})
	require.NoError(t, err)
	require.Len(t, points, 21)
	assert.Equal(t, 0.0, points[0])
	assert.InDelta(t, 0.01, points[10], 1e-15)
	assert.LessOrEqual(t, points[20], 0.02)
	assert.InDelta(t, 0.02, points[20], 1e-15)
}

func TestPointsStopNotOnGrid(t *testing.T) {
	points, err := Points(config.Grid{Parameter: "x", Start: 1, Stop: 2, Step: 0.3})
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.InDelta(t, 1.9, points[3], 1e-12)
}

func TestPointsSinglePoint(t *testing.T) {
	points, err := Points(config.Grid{Parameter: "x", Start: 5, Stop: 5, Step: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, points)
}

func TestPointsErrors(t *testing.T) {
	cases := map[string]config.Grid{
		"zero step":     {Parameter: "x", Start: 0, Stop: 1, Step: 0},
		"negative step": {Parameter: "x", Start: 0, Stop: 1, Step: -1},
		"reversed":      {Parameter: "x", Start: 2, Stop: 1, Step: 0.5},
		"nan":           {Parameter: "x", Start: math.NaN(), Stop: 1, Step: 0.5},
		"too many":      {Parameter: "x", Start: 0, Stop: 1, Step: 1e-6},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Points(g)
			var cfgErr *config.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, "sweep.x", cfgErr.Field)
		})
	}
}

func TestExpandOrderAndFixed(t *testing.T) {
	candidates, err := Expand([]config.Grid{
		{Parameter: "a", Start: 0, Stop: 1, Step: 1},
		{Parameter: "b", Start: 10, Stop: 30, Step: 10},
	}, map[string]float64{"c": 7})
	require.NoError(t, err)
	require.Len(t, candidates, 6)

	want := [][]float64{{0, 10}, {0, 20}, {0, 30}, {1, 10}, {1, 20}, {1, 30}}
	for i, c := range candidates {
		assert.Equal(t, want[i], c.Values)
		assert.Equal(t, want[i][0], c.Setpoint["a"])
		assert.Equal(t, want[i][1], c.Setpoint["b"])
		assert.Equal(t, 7.0, c.Setpoint["c"])
	}

	candidates[0].Setpoint["c"] = 99
	assert.Equal(t, 7.0, candidates[1].Setpoint["c"], "candidates must not share setpoint maps")
}

func TestExpandErrors(t *testing.T) {
	g := config.Grid{Parameter: "a", Start: 0, Stop: 1, Step: 0.5}

	_, err := Expand(nil, nil)
	assert.Error(t, err)

	_, err = Expand([]config.Grid{g, g}, nil)
	assert.ErrorContains(t, err, "swept twice")

	_, err = Expand([]config.Grid{g}, map[string]float64{"a": 1})
	assert.ErrorContains(t, err, "both swept and fixed")

	big := config.Grid{Parameter: "b", Start: 0, Stop: 9999, Step: 1}
	_, err = Expand([]config.Grid{g, big}, nil)
	assert.ErrorContains(t, err, "exceeds")
}
