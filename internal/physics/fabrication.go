package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// machineFabrication models building one machine in-house instead of buying
// it. The bill of materials is priced by the cost model; physics only covers
// the workshop: labour hours scale with metal weight and shrink sub-linearly
// with crew size.
type machineFabrication struct{}

func (machineFabrication) Name() string { return "machine_fabrication" }

func (machineFabrication) Requirements() Requirements {
	return Requirements{
		Constants: []string{"metal_kg", "labor_h_per_ton", "crew_scaling_exponent", "shift_hours", "max_build_days"},
		Params:    []string{"crew_size"},
		Noise:     []string{"rework_fraction"},
		Quality:   []string{"build_days", "metal_tons"},
	}
}

func (m machineFabrication) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	crew := cols.param("crew_size")
	rework := cols.noise("rework_fraction")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		tons     = c["metal_kg"] / 1000
		perTon   = c["labor_h_per_ton"]
		exponent = c["crew_scaling_exponent"]
		shift    = c["shift_hours"]
		maxDays  = c["max_build_days"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	days := out.Quality["build_days"]
	metal := out.Quality["metal_tons"]

	for i := range out.Yield {
		workers := math.Max(1, crew[i])
		hours := tons * perTon * (1 + math.Max(0, rework[i])) / math.Pow(workers, exponent)

		metal[i] = tons
		days[i] = hours / shift
		out.Yield[i] = 1
		out.CycleTime[i] = hours
		out.Failed[i] = days[i] > maxDays
	}
	return out, nil
}
