package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveBatch("ghee_bilona", 10, 1, time.Millisecond)
		r.NumericError("ghee_bilona", "ghee_churning")
		r.ObserveRun("ghee_bilona", "evaluate", nil, time.Second)
		r.SweepCandidate("ghee_bilona")
		r.InfeasibleSweep("ghee_bilona")
	})
	assert.Nil(t, r.Registry())
}

func TestObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveBatch("ghee_bilona", 100, 7, 2*time.Millisecond)
	r.ObserveBatch("ghee_bilona", 50, 3, time.Millisecond)

	assert.Equal(t, 150.0, testutil.ToFloat64(r.ScenariosEvaluated.WithLabelValues("ghee_bilona")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.ScenariosFailed.WithLabelValues("ghee_bilona")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.BatchDuration))
	assert.Same(t, reg, r.Registry())
}

func TestObserveRunStatus(t *testing.T) {
	r := NewRecorder(nil)

	r.ObserveRun("toor_dal", "sweep", nil, time.Second)
	r.ObserveRun("toor_dal", "sweep", errors.New("boom"), time.Second)
	r.ObserveRun("toor_dal", "sweep", nil, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Runs.WithLabelValues("toor_dal", "sweep", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("toor_dal", "sweep", "error")))
}

func TestRegistryGathersAllFamilies(t *testing.T) {
	r := NewRecorder(nil)
	r.ObserveBatch("atta_chakki", 1, 0, time.Millisecond)
	r.NumericError("atta_chakki", "atta_enzymatic")
	r.ObserveRun("atta_chakki", "evaluate", nil, time.Millisecond)
	r.SweepCandidate("atta_chakki")
	r.InfeasibleSweep("atta_chakki")

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"linesim_engine_scenarios_evaluated_total",
		"linesim_engine_numeric_errors_total",
		"linesim_runs_total",
		"linesim_sweep_candidates_total",
		"linesim_sweep_infeasible_total",
	} {
		assert.True(t, names[want], want)
	}
}
