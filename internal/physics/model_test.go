package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

func defaultLine(t *testing.T, name string) *config.ProductLine {
	t.Helper()
	reg, err := config.DefaultRegistry()
	require.NoError(t, err)
	pl, err := reg.Line(name)
	require.NoError(t, err)
	return pl
}

// nominalBatch builds a noise-free batch: parameters at nominal, every
// stochastic input at its mean.
func nominalBatch(pl *config.ProductLine, n int, overrides map[string]float64) *models.ScenarioBatch {
	b := models.NewScenarioBatch(n, 0, 0)
	fill := func(v float64) []float64 {
		col := make([]float64, n)
		for i := range col {
			col[i] = v
		}
		return col
	}
	center := func(d config.Distribution) float64 {
		if d.Kind == config.DistUniform {
			return (d.Min + d.Max) / 2
		}
		return d.Mean
	}
	for _, p := range pl.Parameters {
		v := p.Nominal
		if o, ok := overrides[p.Name]; ok {
			v = o
		}
		b.Params[p.Name] = fill(v)
	}
	for _, d := range pl.Noise {
		b.Noise[d.Name] = fill(center(d))
	}
	for _, d := range pl.Market {
		b.Market[d.Name] = fill(center(d))
	}
	return b
}

func simulate(t *testing.T, lineName string, overrides map[string]float64) *models.ProcessOutcome {
	t.Helper()
	pl := defaultLine(t, lineName)
	m, err := New(pl)
	require.NoError(t, err)
	out, err := m.Simulate(nominalBatch(pl, 3, overrides), Constants(pl.Physics.Constants))
	require.NoError(t, err)
	return out
}

func TestNewResolvesEveryDefaultLine(t *testing.T) {
	reg, err := config.DefaultRegistry()
	require.NoError(t, err)

	for _, name := range reg.Names() {
		t.Run(name, func(t *testing.T) {
			pl, _ := reg.Line(name)
			m, err := New(pl)
			require.NoError(t, err)
			assert.Equal(t, pl.Model, m.Name())

			out, err := m.Simulate(nominalBatch(pl, 5, nil), Constants(pl.Physics.Constants))
			require.NoError(t, err)
			require.NoError(t, out.Validate(5))
			for _, q := range m.Requirements().Quality {
				assert.Contains(t, out.Quality, q)
			}
			for i := range out.Yield {
				assert.False(t, math.IsNaN(out.Yield[i]) || math.IsInf(out.Yield[i], 0))
				assert.Greater(t, out.Yield[i], 0.0)
				assert.GreaterOrEqual(t, out.CycleTime[i], 0.0)
			}
		})
	}
}

func TestNewRejectsBadLines(t *testing.T) {
	pl := *defaultLine(t, "ghee_bilona")

	unknown := pl
	unknown.Model = "espresso"
	_, err := New(&unknown)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "unknown physics model")

	missing := pl
	missing.Physics.Constants = map[string]float64{"base_yield_g_per_l": 30}
	_, err = New(&missing)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Field, "physics.constants.")

	noNoise := pl
	noNoise.Noise = nil
	_, err = New(&noNoise)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Field, "noise.")
}

func TestSimulateMissingColumn(t *testing.T) {
	pl := defaultLine(t, "ghee_bilona")
	b := nominalBatch(pl, 2, nil)
	delete(b.Noise, "ph")

	_, err := gheeChurning{}.Simulate(b, Constants(pl.Physics.Constants))
	var shapeErr *models.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "noise.ph", shapeErr.Column)
}

func TestGheeYieldPeaksAtOptimalTemperature(t *testing.T) {
	at := func(temp float64) float64 {
		return simulate(t, "ghee_bilona", map[string]float64{"churn_temp_c": temp}).Yield[0]
	}
	peak := at(13)
	assert.InDelta(t, 38.0, peak, 1e-9)
	assert.Greater(t, peak, at(12))
	assert.Greater(t, peak, at(14))
	assert.InDelta(t, at(12), at(14), 1e-9)
}

func TestGheeFailures(t *testing.T) {
	assert.False(t, simulate(t, "ghee_bilona", nil).Failed[0])
	assert.True(t, simulate(t, "ghee_bilona", map[string]float64{"churn_temp_c": 25}).Failed[0], "cream too warm to churn")

	scorched := simulate(t, "ghee_bilona", map[string]float64{"heater_kw": 40})
	assert.True(t, scorched.Failed[0])
	assert.Greater(t, scorched.Quality["wall_temp_c"][0], 130.0)
}

func TestHoneyBoilsOverAboveVacuumBoilingPoint(t *testing.T) {
	cool := simulate(t, "sundarban_honey", map[string]float64{"process_temp_c": 38})
	assert.InDelta(t, 44.0, cool.Quality["boiling_point_c"][0], 1.0)
	assert.False(t, cool.Failed[0])
	assert.InDelta(t, 0.19, cool.Quality["moisture"][0], 1e-12)
	assert.InDelta(t, 0.76/0.81, cool.Yield[0], 1e-12)

	hot := simulate(t, "sundarban_honey", map[string]float64{"process_temp_c": 50})
	assert.True(t, hot.Failed[0])
	assert.Less(t, hot.CycleTime[0], cool.CycleTime[0])
	assert.Greater(t, hot.Quality["hmf_mg_per_kg"][0], cool.Quality["hmf_mg_per_kg"][0])
}

func TestDalProteinFloor(t *testing.T) {
	ok := simulate(t, "toor_dal", map[string]float64{"rice_ratio": 0.2})
	assert.InDelta(t, 0.19, ok.Quality["protein"][0], 1e-12)
	assert.InDelta(t, 0.10, ok.Quality["moisture"][0], 1e-12)
	assert.False(t, ok.Failed[0])

	diluted := simulate(t, "toor_dal", map[string]float64{"rice_ratio": 0.5})
	assert.True(t, diluted.Failed[0], "protein below 15%% must fail")

	hotter := simulate(t, "toor_dal", map[string]float64{"extrusion_temp_c": 100})
	assert.Greater(t, hotter.Quality["denaturation"][0], ok.Quality["denaturation"][0])
	assert.Less(t, hotter.Yield[0], ok.Yield[0])
	assert.Less(t, hotter.Quality["cook_time_min"][0], ok.Quality["cook_time_min"][0])
}

func TestAttaFallingNumber(t *testing.T) {
	tuned := simulate(t, "atta_chakki", map[string]float64{"malt_dosage": 0.01})
	assert.InDelta(t, 250, tuned.Quality["falling_number_s"][0], 1e-9)
	assert.InDelta(t, 0.92, tuned.Yield[0], 1e-9)
	assert.False(t, tuned.Failed[0])

	over := simulate(t, "atta_chakki", map[string]float64{"malt_dosage": 0.02})
	assert.Equal(t, 150.0, over.Quality["falling_number_s"][0], "clamped at the floor")
	assert.True(t, over.Failed[0], "sticky dough")
}

func TestOilColdPressLimit(t *testing.T) {
	slow := simulate(t, "mustard_oil", map[string]float64{"press_rpm": 12})
	assert.InDelta(t, 43.0, slow.Quality["exit_temp_c"][0], 1e-9)
	assert.False(t, slow.Failed[0])

	fast := simulate(t, "mustard_oil", map[string]float64{"press_rpm": 18})
	assert.True(t, fast.Failed[0])
	assert.Less(t, fast.Quality["aitc"][0], slow.Quality["aitc"][0])
	assert.Less(t, fast.CycleTime[0], slow.CycleTime[0])
}

func TestCreamingNucleationOptimum(t *testing.T) {
	best := simulate(t, "creamed_honey", map[string]float64{"creaming_temp_c": 14})
	assert.InDelta(t, 15/1.1, best.Quality["crystal_size_um"][0], 1e-9)
	assert.InDelta(t, 1-math.Exp(-0.06*49), best.Quality["crystal_fraction"][0], 1e-9)
	assert.InDelta(t, best.Quality["crystal_fraction"][0], best.Yield[0], 1e-12)
	assert.InDelta(t, 4.96, best.Quality["spreadability"][0], 0.01)
	assert.InDelta(t, 1.1/1.5, best.Quality["dissolution_rate"][0], 1e-9)
	assert.InDelta(t, 7*24.0, best.CycleTime[0], 1e-9)
	assert.False(t, best.Failed[0])

	cool := simulate(t, "creamed_honey", map[string]float64{"creaming_temp_c": 13})
	warm := simulate(t, "creamed_honey", map[string]float64{"creaming_temp_c": 15})
	assert.InDelta(t, cool.Yield[0], warm.Yield[0], 1e-12)
	assert.Less(t, warm.Yield[0], best.Yield[0])
	assert.Greater(t, warm.Quality["crystal_size_um"][0], best.Quality["crystal_size_um"][0])

	gritty := simulate(t, "creamed_honey", nil)
	assert.Greater(t, gritty.Quality["crystal_size_um"][0], 50.0)
	assert.True(t, gritty.Failed[0], "few nuclei grow gritty crystals")

	longer := simulate(t, "creamed_honey", map[string]float64{"creaming_temp_c": 14, "creaming_days": 10})
	assert.Greater(t, longer.Quality["crystal_fraction"][0], best.Quality["crystal_fraction"][0])
}

func TestMeadNitrogenLimitsFermentation(t *testing.T) {
	starved := simulate(t, "mustard_mead", nil)
	assert.InDelta(t, 0.4, starved.Quality["nitrogen_factor"][0], 1e-12)
	assert.InDelta(t, 4.605/0.1*5/24, starved.Quality["fermentation_days"][0], 1e-9)
	assert.InDelta(t, 3.75, starved.Quality["residual_sugar_g_l"][0], 1e-9)
	assert.InDelta(t, (1.1-1.00375)*131.25, starved.Quality["abv"][0], 1e-9)
	assert.InDelta(t, 1-3.75/240, starved.Yield[0], 1e-12)
	assert.False(t, starved.Failed[0])

	fed := simulate(t, "mustard_mead", map[string]float64{"yan_addition_ppm": 90})
	assert.InDelta(t, 1.0, fed.Quality["nitrogen_factor"][0], 1e-12)
	assert.Less(t, fed.CycleTime[0], starved.CycleTime[0])
	assert.Greater(t, fed.Quality["abv"][0], starved.Quality["abv"][0])

	hot := simulate(t, "mustard_mead", map[string]float64{"ferment_temp_c": 23})
	assert.Less(t, hot.CycleTime[0], starved.CycleTime[0])
	assert.True(t, hot.Failed[0], "fusel alcohols above the temperature limit")
}

func TestMeadStuckWithoutNutrient(t *testing.T) {
	pl := defaultLine(t, "mustard_mead")
	m, err := New(pl)
	require.NoError(t, err)

	b := nominalBatch(pl, 2, nil)
	b.Noise["must_yan_ppm"][0] = 10
	b.Noise["must_yan_ppm"][1] = 10
	b.Params["yan_addition_ppm"][1] = 40

	out, err := m.Simulate(b, Constants(pl.Physics.Constants))
	require.NoError(t, err)
	assert.Greater(t, out.Quality["fermentation_days"][0], 30.0)
	assert.True(t, out.Failed[0], "stuck fermentation")
	assert.Less(t, out.Quality["fermentation_days"][1], 30.0)
	assert.False(t, out.Failed[1])
}

func TestFabricationCrewSize(t *testing.T) {
	four := simulate(t, "tray_dryer_build", map[string]float64{"crew_size": 4})
	assert.InDelta(t, 0.8*160*1.05/math.Pow(4, 0.8), four.CycleTime[0], 1e-9)
	assert.InDelta(t, four.CycleTime[0]/8, four.Quality["build_days"][0], 1e-12)
	assert.InDelta(t, 0.8, four.Quality["metal_tons"][0], 1e-12)
	assert.Equal(t, 1.0, four.Yield[0])
	assert.False(t, four.Failed[0])

	alone := simulate(t, "tray_dryer_build", map[string]float64{"crew_size": 1})
	assert.InDelta(t, 16.8, alone.Quality["build_days"][0], 1e-9)
	assert.True(t, alone.Failed[0], "one fitter misses the lead time")
}
