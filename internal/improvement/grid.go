package improvement

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
)

// MaxCandidates bounds the size of an expanded grid.
const MaxCandidates = 10000

// Candidate is one point of an expanded grid. Values follows the order of
// the grids it was expanded from.
type Candidate struct {
	Setpoint map[string]float64
	Values   []float64
}

// Points expands a grid to start + i·step for i = 0, 1, ... while the point
// does not pass stop. Points are computed from the index, never accumulated,
// so long grids do not drift.
func Points(g config.Grid) ([]float64, error) {
	field := "sweep." + g.Parameter
	for _, v := range []float64{g.Start, g.Stop, g.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, config.Errorf("", field, "grid bounds must be finite")
		}
	}
	if g.Step <= 0 {
		return nil, config.Errorf("", field, "step must be positive, got %g", g.Step)
	}
	if g.Stop < g.Start {
		return nil, config.Errorf("", field, "stop %g is below start %g", g.Stop, g.Start)
	}
	n := int(math.Floor((g.Stop-g.Start)/g.Step+1e-9)) + 1
	if n > MaxCandidates {
		return nil, config.Errorf("", field, "grid has %d points, limit is %d", n, MaxCandidates)
	}
	points := make([]float64, n)
	for i := range points {
		points[i] = g.Start + float64(i)*g.Step
	}
	// Rounding must not push the last point past stop.
	points[n-1] = math.Min(points[n-1], g.Stop)
	return points, nil
}

// Expand builds the cartesian product of grids in lexicographic order, the
// first grid varying slowest. Fixed setpoints are copied into every
// candidate.
func Expand(grids []config.Grid, fixed map[string]float64) ([]Candidate, error) {
	if len(grids) == 0 {
		return nil, config.Errorf("", "sweep", "at least one grid is required")
	}
	axes := make([][]float64, len(grids))
	total := 1
	seen := make(map[string]bool, len(grids))
	for i, g := range grids {
		if seen[g.Parameter] {
			return nil, config.Errorf("", "sweep."+g.Parameter, "parameter swept twice")
		}
		seen[g.Parameter] = true
		if _, ok := fixed[g.Parameter]; ok {
			return nil, config.Errorf("", "sweep."+g.Parameter, "parameter is both swept and fixed")
		}
		points, err := Points(g)
		if err != nil {
			return nil, err
		}
		axes[i] = points
		total *= len(points)
		if total > MaxCandidates {
			return nil, config.Errorf("", "sweep", "grid product exceeds %d candidates", MaxCandidates)
		}
	}

	candidates := make([]Candidate, 0, total)
	index := make([]int, len(axes))
	for {
		c := Candidate{
			Setpoint: make(map[string]float64, len(fixed)+len(grids)),
			Values:   make([]float64, len(axes)),
		}
		for name, v := range fixed {
			c.Setpoint[name] = v
		}
		for i, g := range grids {
			c.Values[i] = axes[i][index[i]]
			c.Setpoint[g.Parameter] = c.Values[i]
		}
		candidates = append(candidates, c)

		// Odometer increment, last axis fastest.
		k := len(axes) - 1
		for k >= 0 {
			index[k]++
			if index[k] < len(axes[k]) {
				break
			}
			index[k] = 0
			k--
		}
		if k < 0 {
			return candidates, nil
		}
	}
}
