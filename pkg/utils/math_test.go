package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampFloat64(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}

	for _, tt := range tests {
		result := ClampFloat64(tt.value, tt.min, tt.max)
		if result != tt.expected {
			t.Errorf("ClampFloat64(%f, %f, %f) = %f, expected %f", tt.value, tt.min, tt.max, result, tt.expected)
		}
	}
}

func TestMeanStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	m, s := MeanStdDev(values)
	assert.InDelta(t, 5.0, m, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s, 1e-12)
}

func TestMomentsDegenerate(t *testing.T) {
	m, s := MeanStdDev(nil)
	assert.Equal(t, 0.0, m)
	assert.Equal(t, 0.0, s)

	m, s = MeanStdDev([]float64{3})
	assert.Equal(t, 3.0, m)
	assert.Equal(t, 0.0, s)
}

func TestPercentile(t *testing.T) {
	sorted := Sorted([]float64{5, 1, 4, 2, 3})
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, sorted)

	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 5.0, Percentile(sorted, 100))
	p50 := Percentile(sorted, 50)
	assert.GreaterOrEqual(t, p50, 2.0)
	assert.LessOrEqual(t, p50, 4.0)
	assert.LessOrEqual(t, Percentile(sorted, 5), Percentile(sorted, 95))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 8.0, hi)

	lo, hi = MinMax(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestFirstNonFinite(t *testing.T) {
	assert.Equal(t, -1, FirstNonFinite([]float64{1, 2}))
	assert.Equal(t, 1, FirstNonFinite([]float64{1, math.NaN(), math.Inf(1)}))
	assert.Equal(t, 0, FirstNonFinite([]float64{math.Inf(-1)}))
}

func TestTCritical(t *testing.T) {
	// Large samples approach the normal 1.96.
	assert.InDelta(t, 1.96, TCritical(0.95, 100000), 1e-3)
	// t(0.975, 9) = 2.262
	assert.InDelta(t, 2.262, TCritical(0.95, 10), 1e-3)
	assert.Equal(t, 0.0, TCritical(0.95, 1))
	assert.Equal(t, 0.0, TCritical(1, 10))
}
