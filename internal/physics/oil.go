package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// oilColdPress models a kachi ghani expeller. Speed and pressure heat the
// oil by friction; above the cold-press limit the batch loses its label and
// the pungent AITC degrades faster.
type oilColdPress struct{}

func (oilColdPress) Name() string { return "oil_cold_press" }

func (oilColdPress) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"ambient_temp_c", "friction_coeff", "cooling_factor", "cold_press_limit_c",
			"extraction_max", "extraction_p50_bar", "extraction_width_bar",
			"aitc_frequency_per_h", "aitc_activation_j_mol", "aitc_contact_time_h",
			"batch_seed_kg", "throughput_kg_per_h_per_rpm",
			"induction_coeff_h", "induction_offset_mg_l",
		},
		Params:  []string{"press_rpm", "press_pressure_bar"},
		Noise:   []string{"seed_oil_content", "sparging_efficiency", "initial_dissolved_oxygen_mg_l", "initial_aitc"},
		Quality: []string{"exit_temp_c", "extraction_efficiency", "aitc", "induction_time_h"},
	}
}

func (m oilColdPress) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	rpm := cols.param("press_rpm")
	pressure := cols.param("press_pressure_bar")
	oil := cols.noise("seed_oil_content")
	sparge := cols.noise("sparging_efficiency")
	oxygen := cols.noise("initial_dissolved_oxygen_mg_l")
	aitc0 := cols.noise("initial_aitc")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		ambient    = c["ambient_temp_c"]
		friction   = c["friction_coeff"]
		cooling    = c["cooling_factor"]
		limit      = c["cold_press_limit_c"]
		extMax     = c["extraction_max"]
		p50        = c["extraction_p50_bar"]
		width      = c["extraction_width_bar"]
		aitcA      = c["aitc_frequency_per_h"]
		aitcEa     = c["aitc_activation_j_mol"]
		contact    = c["aitc_contact_time_h"]
		batchKg    = c["batch_seed_kg"]
		throughput = c["throughput_kg_per_h_per_rpm"]
		inductionK = c["induction_coeff_h"]
		inductionO = c["induction_offset_mg_l"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	exit := out.Quality["exit_temp_c"]
	eff := out.Quality["extraction_efficiency"]
	aitc := out.Quality["aitc"]
	induction := out.Quality["induction_time_h"]

	for i := range out.Yield {
		exit[i] = ambient + rpm[i]*pressure[i]*friction/100/cooling
		eff[i] = extMax * Logistic(pressure[i], p50, 1/width)
		out.Yield[i] = oil[i] * eff[i]
		out.CycleTime[i] = batchKg / (throughput * rpm[i])

		aitc[i] = aitc0[i] * math.Exp(-ArrheniusRate(aitcA, aitcEa, Kelvin(exit[i]))*contact)
		residualO2 := oxygen[i] * (1 - utils.ClampFloat64(sparge[i], 0, 1))
		induction[i] = inductionK / (residualO2 + inductionO)

		out.Failed[i] = exit[i] > limit
	}
	return out, nil
}
