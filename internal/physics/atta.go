package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// attaEnzymatic models malt dosing of whole wheat flour. Amylase from the
// malt lowers the falling number; roti softness is best near a target
// falling number and dough turns sticky when it drops too far.
type attaEnzymatic struct{}

func (attaEnzymatic) Name() string { return "atta_enzymatic" }

func (attaEnzymatic) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"malt_fn_slope_s", "min_falling_number_s", "target_falling_number_s", "falling_number_tolerance_s",
			"extraction_rate", "sticky_limit_s", "min_dough_stability_min", "stability_coeff_min",
			"hard_wheat_protein_boost", "kernel_radius_m",
			"absorption_base", "absorption_protein_coeff", "absorption_starch_coeff",
		},
		Params:  []string{"malt_dosage", "hard_wheat_share"},
		Noise:   []string{"base_falling_number_s", "protein", "starch_damage", "gluten_quality", "tempering_diffusivity_m2_s"},
		Quality: []string{"falling_number_s", "water_absorption", "dough_stability_min", "protein"},
	}
}

func (m attaEnzymatic) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	dosage := cols.param("malt_dosage")
	hard := cols.param("hard_wheat_share")
	baseFN := cols.noise("base_falling_number_s")
	protein0 := cols.noise("protein")
	starch := cols.noise("starch_damage")
	gluten := cols.noise("gluten_quality")
	diffusivity := cols.noise("tempering_diffusivity_m2_s")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		fnSlope    = c["malt_fn_slope_s"]
		fnFloor    = c["min_falling_number_s"]
		fnTarget   = c["target_falling_number_s"]
		fnTol      = c["falling_number_tolerance_s"]
		extraction = c["extraction_rate"]
		sticky     = c["sticky_limit_s"]
		minStab    = c["min_dough_stability_min"]
		stabCoeff  = c["stability_coeff_min"]
		boost      = c["hard_wheat_protein_boost"]
		radius     = c["kernel_radius_m"]
		absBase    = c["absorption_base"]
		absProt    = c["absorption_protein_coeff"]
		absStarch  = c["absorption_starch_coeff"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	fn := out.Quality["falling_number_s"]
	absorption := out.Quality["water_absorption"]
	stability := out.Quality["dough_stability_min"]
	protein := out.Quality["protein"]

	for i := range out.Yield {
		fn[i] = math.Max(fnFloor, baseFN[i]-fnSlope*dosage[i])
		protein[i] = protein0[i] + hard[i]*boost
		absorption[i] = absBase + absProt*protein[i] + absStarch*starch[i]
		stability[i] = protein[i] * stabCoeff * gluten[i]

		// Saleable fraction: milling extraction times acceptance of the roti.
		out.Yield[i] = extraction * GaussianResponse(fn[i], fnTarget, fnTol*fnTol)
		// Tempering water penetrates the kernel by diffusion, t ≈ r²/4D.
		out.CycleTime[i] = radius * radius / (4 * diffusivity[i]) / 3600

		out.Failed[i] = fn[i] < sticky || stability[i] < minStab
	}
	return out, nil
}
