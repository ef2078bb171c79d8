// Package sensitivity ranks the stochastic inputs of a Monte Carlo run by
// how strongly they drive an outcome.
package sensitivity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// ErrNoInputs is returned when the evaluation was run without keeping its
// input columns.
var ErrNoInputs = errors.New("evaluation has no input columns")

// Driver is one input column and its linear association with the target.
type Driver struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	// Correlation is Pearson's r between the input and the target.
	Correlation float64 `json:"correlation"`
	// Impact is the least-squares slope: target units per input unit.
	Impact float64 `json:"impact"`
}

// Rank correlates every varying input column with the target outcome and
// returns the drivers ordered by |r|, strongest first. Constant columns carry
// no information and are left out.
func Rank(eval *models.Evaluation, target string) ([]Driver, error) {
	if eval == nil || eval.Batch == nil {
		return nil, ErrNoInputs
	}
	y, err := eval.Outcome(target)
	if err != nil {
		return nil, err
	}
	if len(y) < 2 {
		return nil, fmt.Errorf("need at least 2 scenarios, got %d", len(y))
	}
	sdY := stat.StdDev(y, nil)

	var drivers []Driver
	for _, ref := range eval.Batch.Columns() {
		x, _ := eval.Batch.Column(ref.Kind, ref.Name)
		if len(x) != len(y) {
			return nil, &models.ShapeError{Source: "sensitivity", Column: ref.Kind + "." + ref.Name, Len: len(x), Want: len(y)}
		}
		sdX := stat.StdDev(x, nil)
		if sdX == 0 || math.IsNaN(sdX) {
			continue
		}
		d := Driver{Name: ref.Name, Kind: ref.Kind}
		if sdY > 0 {
			d.Correlation = stat.Correlation(x, y, nil)
			d.Impact = d.Correlation * sdY / sdX
		}
		drivers = append(drivers, d)
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		return math.Abs(drivers[i].Correlation) > math.Abs(drivers[j].Correlation)
	})
	return drivers, nil
}

// Interval is a two-sided confidence interval for a mean.
type Interval struct {
	Mean  float64 `json:"mean"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Level float64 `json:"level"`
}

// ConfidenceInterval computes the Student-t interval of the mean at the
// given level, e.g. 0.95.
func ConfidenceInterval(values []float64, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, fmt.Errorf("confidence level must be in (0, 1), got %g", level)
	}
	if len(values) < 2 {
		return Interval{}, fmt.Errorf("need at least 2 values, got %d", len(values))
	}
	mean, std := stat.MeanStdDev(values, nil)
	half := utils.TCritical(level, len(values)) * std / math.Sqrt(float64(len(values)))
	return Interval{Mean: mean, Low: mean - half, High: mean + half, Level: level}, nil
}
