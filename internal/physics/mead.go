package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// meadFermentation models yeast growth on diluted honey must. Growth follows
// a Monod rate capped by the scarcer of sugar and assimilable nitrogen
// (YAN); short nitrogen slows the ferment until it sticks with sugar left.
type meadFermentation struct{}

func (meadFermentation) Name() string { return "mead_fermentation" }

func (meadFermentation) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"mu_max_per_h", "yan_saturation_ppm", "min_nitrogen_factor",
			"growth_ref_temp_c", "growth_doubling_c", "generations_ln", "lag_factor",
			"initial_sugar_g_l", "original_gravity", "abv_factor",
			"stuck_days", "stuck_sugar_g_l", "fusel_temp_c",
		},
		Params:  []string{"yan_addition_ppm", "ferment_temp_c"},
		Noise:   []string{"must_yan_ppm", "residual_sugar_g_l"},
		Quality: []string{"abv", "fermentation_days", "residual_sugar_g_l", "nitrogen_factor"},
	}
}

func (m meadFermentation) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	addition := cols.param("yan_addition_ppm")
	temp := cols.param("ferment_temp_c")
	yan := cols.noise("must_yan_ppm")
	rs0 := cols.noise("residual_sugar_g_l")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		muMax       = c["mu_max_per_h"]
		saturation  = c["yan_saturation_ppm"]
		minFactor   = c["min_nitrogen_factor"]
		refTemp     = c["growth_ref_temp_c"]
		doubling    = c["growth_doubling_c"]
		generations = c["generations_ln"]
		lag         = c["lag_factor"]
		sugar0      = c["initial_sugar_g_l"]
		og          = c["original_gravity"]
		abvFactor   = c["abv_factor"]
		stuckDays   = c["stuck_days"]
		stuckSugar  = c["stuck_sugar_g_l"]
		fuselTemp   = c["fusel_temp_c"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	abv := out.Quality["abv"]
	ferment := out.Quality["fermentation_days"]
	residual := out.Quality["residual_sugar_g_l"]
	nitrogen := out.Quality["nitrogen_factor"]

	for i := range out.Yield {
		// Liebig: the growth rate is capped by nitrogen once sugar is plentiful.
		nf := math.Min(1, math.Max(minFactor, (yan[i]+addition[i])/saturation))
		mu := muMax * nf * Q10Factor(temp[i], refTemp, doubling)
		hours := generations / mu * lag

		nitrogen[i] = nf
		ferment[i] = hours / 24
		// Starved yeast quits early and leaves more sugar behind.
		residual[i] = math.Max(0, rs0[i]) / nf
		fg := 1 + residual[i]/1000
		abv[i] = (og - fg) * abvFactor

		out.Yield[i] = math.Max(0, 1-residual[i]/sugar0)
		out.CycleTime[i] = hours
		out.Failed[i] = ferment[i] > stuckDays || residual[i] > stuckSugar || temp[i] > fuselTemp
	}
	return out, nil
}
