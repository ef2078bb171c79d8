package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// honeyVacuum models vacuum drying of raw honey. Hotter drying is faster but
// forms HMF and boils over once the honey passes the boiling point of water
// at the chamber pressure.
type honeyVacuum struct{}

func (honeyVacuum) Name() string { return "honey_vacuum" }

func (honeyVacuum) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"target_moisture",
			"drying_base_rate_per_h", "drying_rate_slope", "drying_ref_temp_c", "drying_min_rate_per_h",
			"hmf_rate_mg_per_kg_h", "hmf_ref_temp_c", "hmf_doubling_c",
			"aw_slope", "aw_intercept", "aw_limit", "fermentation_aw", "fermentation_steepness",
			"vaporization_enthalpy_j_mol", "water_boiling_point_k", "atmospheric_mbar",
		},
		Params:  []string{"process_temp_c", "vacuum_mbar"},
		Noise:   []string{"initial_moisture", "initial_hmf_mg_per_kg"},
		Quality: []string{"moisture", "hmf_mg_per_kg", "water_activity", "fermentation_risk", "boiling_point_c"},
	}
}

func (m honeyVacuum) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	temp := cols.param("process_temp_c")
	pressure := cols.param("vacuum_mbar")
	m0 := cols.noise("initial_moisture")
	hmf0 := cols.noise("initial_hmf_mg_per_kg")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		target     = c["target_moisture"]
		baseRate   = c["drying_base_rate_per_h"]
		rateSlope  = c["drying_rate_slope"]
		rateRef    = c["drying_ref_temp_c"]
		minRate    = c["drying_min_rate_per_h"]
		hmfRate    = c["hmf_rate_mg_per_kg_h"]
		hmfRef     = c["hmf_ref_temp_c"]
		hmfDouble  = c["hmf_doubling_c"]
		awSlope    = c["aw_slope"]
		awOffset   = c["aw_intercept"]
		awLimit    = c["aw_limit"]
		fermAW     = c["fermentation_aw"]
		fermSteep  = c["fermentation_steepness"]
		enthalpy   = c["vaporization_enthalpy_j_mol"]
		waterBoilK = c["water_boiling_point_k"]
		atm        = c["atmospheric_mbar"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	moisture := out.Quality["moisture"]
	hmf := out.Quality["hmf_mg_per_kg"]
	aw := out.Quality["water_activity"]
	risk := out.Quality["fermentation_risk"]
	boil := out.Quality["boiling_point_c"]

	for i := range out.Yield {
		rate := math.Max(minRate, baseRate+rateSlope*(temp[i]-rateRef))
		hours := math.Max(0, m0[i]-target) / rate
		mf := math.Min(m0[i], target)

		out.CycleTime[i] = hours
		moisture[i] = mf
		hmf[i] = hmf0[i] + hmfRate*Q10Factor(temp[i], hmfRef, hmfDouble)*hours
		// Water activity is linear in moisture expressed in percent.
		aw[i] = awSlope*mf*100 + awOffset
		risk[i] = Logistic(aw[i], fermAW, fermSteep)
		boil[i] = Celsius(BoilingPointK(pressure[i], atm, waterBoilK, enthalpy))

		// Dry solids are conserved, so output per kg of raw honey is (1−m0)/(1−mf).
		out.Yield[i] = (1 - m0[i]) / (1 - mf)
		out.Failed[i] = temp[i] >= boil[i] || aw[i] > awLimit
	}
	return out, nil
}
