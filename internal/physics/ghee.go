package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// gheeChurning models bilona ghee: fat recovery during churning peaks at an
// optimal cream temperature and pH, and the clarification boil scorches when
// the pan wall runs too hot.
type gheeChurning struct{}

func (gheeChurning) Name() string { return "ghee_churning" }

func (gheeChurning) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"base_yield_g_per_l", "peak_yield_g_per_l",
			"optimal_churn_temp_c", "churn_temp_width", "optimal_ph", "ph_width",
			"churn_temp_min_c", "churn_temp_max_c",
			"wall_area_m2", "scorch_limit_c",
			"cycle_ref_time_h", "cycle_ref_temp_c", "q10_interval_c",
			"flavor_ref_temp_c", "flavor_penalty_per_c",
		},
		Params:  []string{"churn_temp_c", "heater_kw"},
		Noise:   []string{"ph", "heat_transfer_coeff", "bulk_temp_c"},
		Quality: []string{"wall_temp_c", "flavor_score"},
	}
}

func (m gheeChurning) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	temp := cols.param("churn_temp_c")
	heater := cols.param("heater_kw")
	ph := cols.noise("ph")
	h := cols.noise("heat_transfer_coeff")
	bulk := cols.noise("bulk_temp_c")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		base      = c["base_yield_g_per_l"]
		span      = c["peak_yield_g_per_l"] - base
		optTemp   = c["optimal_churn_temp_c"]
		tempWidth = c["churn_temp_width"]
		optPH     = c["optimal_ph"]
		phWidth   = c["ph_width"]
		minTemp   = c["churn_temp_min_c"]
		maxTemp   = c["churn_temp_max_c"]
		area      = c["wall_area_m2"]
		scorch    = c["scorch_limit_c"]
		refTime   = c["cycle_ref_time_h"]
		refTemp   = c["cycle_ref_temp_c"]
		q10       = c["q10_interval_c"]
		flavorRef = c["flavor_ref_temp_c"]
		penalty   = c["flavor_penalty_per_c"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	wall := out.Quality["wall_temp_c"]
	flavor := out.Quality["flavor_score"]

	for i := range out.Yield {
		out.Yield[i] = base + span*GaussianResponse(ph[i], optPH, phWidth)*GaussianResponse(temp[i], optTemp, tempWidth)
		// Churning slows in colder cream.
		out.CycleTime[i] = refTime / Q10Factor(temp[i], refTemp, q10)

		// Heat flux through the pan wall: q = P/A, ΔT = q/h.
		wall[i] = bulk[i] + heater[i]*1000/(area*h[i])
		flavor[i] = 100 - penalty*math.Abs(bulk[i]-flavorRef)

		scorched := wall[i] > scorch
		if scorched {
			flavor[i] /= 2
		}
		out.Failed[i] = scorched || temp[i] < minTemp || temp[i] > maxTemp
	}
	return out, nil
}
