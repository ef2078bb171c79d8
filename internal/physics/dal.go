package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/utils"
)

// dalExtrusion models a toor dal analogue extruded from a tur khanda and
// broken rice blend. Extrusion heat gelatinizes starch (shorter cooking)
// but denatures protein; a moisture control loop trims the dryer.
type dalExtrusion struct{}

func (dalExtrusion) Name() string { return "dal_extrusion" }

func (dalExtrusion) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"gel_onset_temp_c", "gel_slope_per_c", "gel_min", "gel_max", "cook_time_coeff_min",
			"denaturation_frequency_per_s", "denaturation_activation_j_mol", "max_denaturation",
			"dal_protein", "rice_protein", "min_protein",
			"target_moisture", "equilibrium_moisture", "half_thickness_m",
			"diffusivity_prefactor_m2_s", "drying_activation_j_mol",
			"cooking_loss_base", "cooking_loss_calcium_slope", "cooking_loss_min",
		},
		Params:  []string{"extrusion_temp_c", "residence_time_s", "rice_ratio", "dryer_temp_c"},
		Noise:   []string{"input_moisture", "moisture_sensor_error", "heater_variance", "calcium_index"},
		Quality: []string{"gelatinization", "cook_time_min", "denaturation", "protein", "moisture", "cooking_loss"},
	}
}

func (m dalExtrusion) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	temp := cols.param("extrusion_temp_c")
	residence := cols.param("residence_time_s")
	rice := cols.param("rice_ratio")
	dryer := cols.param("dryer_temp_c")
	m0 := cols.noise("input_moisture")
	sensor := cols.noise("moisture_sensor_error")
	heater := cols.noise("heater_variance")
	calcium := cols.noise("calcium_index")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		gelOnset   = c["gel_onset_temp_c"]
		gelSlope   = c["gel_slope_per_c"]
		gelMin     = c["gel_min"]
		gelMax     = c["gel_max"]
		cookCoeff  = c["cook_time_coeff_min"]
		denA       = c["denaturation_frequency_per_s"]
		denEa      = c["denaturation_activation_j_mol"]
		maxDen     = c["max_denaturation"]
		dalProt    = c["dal_protein"]
		riceProt   = c["rice_protein"]
		minProt    = c["min_protein"]
		target     = c["target_moisture"]
		eqMoisture = c["equilibrium_moisture"]
		halfThick  = c["half_thickness_m"]
		d0         = c["diffusivity_prefactor_m2_s"]
		dryEa      = c["drying_activation_j_mol"]
		lossBase   = c["cooking_loss_base"]
		lossSlope  = c["cooking_loss_calcium_slope"]
		lossMin    = c["cooking_loss_min"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	gel := out.Quality["gelatinization"]
	cook := out.Quality["cook_time_min"]
	den := out.Quality["denaturation"]
	protein := out.Quality["protein"]
	moisture := out.Quality["moisture"]
	loss := out.Quality["cooking_loss"]

	for i := range out.Yield {
		gel[i] = utils.ClampFloat64((temp[i]-gelOnset)*gelSlope, gelMin, gelMax)
		cook[i] = cookCoeff / gel[i]

		den[i] = FirstOrderConversion(ArrheniusRate(denA, denEa, Kelvin(temp[i])), residence[i])
		protein[i] = (1-rice[i])*dalProt + rice[i]*riceProt

		// The controller removes what the sensor reports above target, so the
		// residual error is the sensor error plus heater variance.
		measured := m0[i] + sensor[i]
		moisture[i] = m0[i] - (measured - target + heater[i])

		loss[i] = math.Max(lossMin, lossBase-lossSlope*calcium[i])
		out.Yield[i] = (1 - den[i]) * (1 - loss[i])

		diffusivity := ArrheniusRate(d0, dryEa, Kelvin(dryer[i]))
		out.CycleTime[i] = SlabDryingTime(halfThick, diffusivity, m0[i], target, eqMoisture) / 3600

		out.Failed[i] = protein[i] < minProt || den[i] > maxDen
	}
	return out, nil
}
