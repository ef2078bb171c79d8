package utils

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// MeanStdDev returns both moments in one pass.
func MeanStdDev(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Sorted returns a sorted copy of values.
func Sorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// Percentile returns the p-th percentile (0-100) of an already sorted slice,
// linearly interpolated.
func Percentile(sorted []float64, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(ClampFloat64(percentile/100.0, 0, 1), stat.LinInterp, sorted, nil)
}

// MinMax returns the smallest and largest value.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}

// FirstNonFinite returns the index of the first NaN or Inf value, or -1.
func FirstNonFinite(values []float64) int {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

// TCritical is the two-sided Student-t critical value at the given
// confidence level for a sample of n values. It is zero below two values.
func TCritical(level float64, n int) float64 {
	if n < 2 || level <= 0 || level >= 1 {
		return 0
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	return t.Quantile(1 - (1-level)/2)
}
