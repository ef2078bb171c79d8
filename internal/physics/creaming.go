package physics

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// honeyCreaming models seeded crystallisation of honey into a spreadable
// cream. Nucleation peaks in a narrow band around the optimum temperature;
// fewer nuclei grow into larger crystals, and the crystal network follows
// Avrami kinetics X = 1 − exp(−k·t^n).
type honeyCreaming struct{}

func (honeyCreaming) Name() string { return "honey_creaming" }

func (honeyCreaming) Requirements() Requirements {
	return Requirements{
		Constants: []string{
			"nucleation_optimum_c", "nucleation_spread",
			"crystal_size_scale_um", "crystal_size_offset",
			"avrami_rate_per_day", "avrami_exponent",
			"yield_stress_scale_pa_um", "spread_scale_pa", "dissolution_scale_um",
			"gritty_limit_um",
		},
		Params:  []string{"creaming_temp_c", "creaming_days"},
		Noise:   []string{"seed_activity"},
		Quality: []string{"crystal_size_um", "crystal_fraction", "spreadability", "dissolution_rate"},
	}
}

func (m honeyCreaming) Simulate(b *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error) {
	cols := read(b)
	temp := cols.param("creaming_temp_c")
	days := cols.param("creaming_days")
	seed := cols.noise("seed_activity")
	if cols.err != nil {
		return nil, cols.err
	}

	var (
		optimum     = c["nucleation_optimum_c"]
		spread      = c["nucleation_spread"]
		sizeScale   = c["crystal_size_scale_um"]
		sizeOffset  = c["crystal_size_offset"]
		avramiK     = c["avrami_rate_per_day"]
		avramiN     = c["avrami_exponent"]
		stressScale = c["yield_stress_scale_pa_um"]
		spreadScale = c["spread_scale_pa"]
		dissolve    = c["dissolution_scale_um"]
		gritty      = c["gritty_limit_um"]
	)

	out := models.NewProcessOutcome(b.N, m.Requirements().Quality...)
	size := out.Quality["crystal_size_um"]
	fraction := out.Quality["crystal_fraction"]
	spreadability := out.Quality["spreadability"]
	dissolution := out.Quality["dissolution_rate"]

	for i := range out.Yield {
		nucleation := GaussianResponse(temp[i], optimum, spread) * math.Max(0, seed[i])
		size[i] = sizeScale / (nucleation + sizeOffset)
		t := math.Max(0, days[i])
		fraction[i] = 1 - math.Exp(-avramiK*nucleation*math.Pow(t, avramiN))

		// Smaller crystals build a stronger network; the score is 1 (runny) to 10 (firm).
		yieldStress := stressScale / size[i] * fraction[i]
		spreadability[i] = math.Min(10, math.Max(1, yieldStress/spreadScale))
		dissolution[i] = dissolve / size[i]

		// Honey that has not set is sold back as liquid honey.
		out.Yield[i] = fraction[i]
		out.CycleTime[i] = t * 24
		out.Failed[i] = size[i] > gritty
	}
	return out, nil
}
