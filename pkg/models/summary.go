package models

// Stats summarizes one outcome distribution.
type Stats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	StdErr   float64 `json:"stderr"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	P05      float64 `json:"p05"`
	P50      float64 `json:"p50"`
	P95      float64 `json:"p95"`
	CI95Low  float64 `json:"ci95_low"`
	CI95High float64 `json:"ci95_high"`
}

// CapabilityStatus tells whether capability indices could be computed.
type CapabilityStatus string

const (
	CapabilityDefined CapabilityStatus = "defined"
	// CapabilityUndefined is reported when the outcome has zero spread, so
	// every index would be a division by zero.
	CapabilityUndefined CapabilityStatus = "undefined"
)

// Capability holds process capability indices. Index pointers are nil when
// the status is undefined or the limit is one-sided on that side.
type Capability struct {
	Status     CapabilityStatus `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	Cp         *float64         `json:"cp,omitempty"`
	Cpk        *float64         `json:"cpk,omitempty"`
	Cpu        *float64         `json:"cpu,omitempty"`
	Cpl        *float64         `json:"cpl,omitempty"`
	SigmaLevel float64          `json:"sigma_level"`
}

// SpecResult is the pass rate and capability of one spec limit.
type SpecResult struct {
	Name       string     `json:"name"`
	Outcome    string     `json:"outcome"`
	Lower      *float64   `json:"lower,omitempty"`
	Upper      *float64   `json:"upper,omitempty"`
	Nominal    float64    `json:"nominal"`
	PassRate   float64    `json:"pass_rate"`
	Capability Capability `json:"capability"`
}

// Summary is the reduced statistics of one Monte Carlo run.
type Summary struct {
	RunID       string             `json:"run_id"`
	ProductLine string             `json:"product_line"`
	N           int                `json:"n"`
	Seed        uint64             `json:"seed"`
	Setpoints   map[string]float64 `json:"setpoints"`
	FailureRate float64            `json:"failure_rate"`
	Yield       Stats              `json:"yield"`
	CycleTime   Stats              `json:"cycle_time"`
	Objective   Stats              `json:"objective"`
	UnitCost    Stats              `json:"unit_cost"`
	Margin      Stats              `json:"margin"`
	Quality     map[string]Stats   `json:"quality"`
	Specs       []SpecResult       `json:"specs"`
}

// Spec returns the spec result with the given name.
func (s *Summary) Spec(name string) (SpecResult, bool) {
	for _, r := range s.Specs {
		if r.Name == name {
			return r, true
		}
	}
	return SpecResult{}, false
}

// SweepPoint is one evaluated grid candidate.
type SweepPoint struct {
	Setpoint      map[string]float64 `json:"setpoint"`
	Values        []float64          `json:"values"`
	Aggregate     float64            `json:"aggregate"`
	MeanYield     float64            `json:"mean_yield"`
	MeanObjective float64            `json:"mean_objective"`
	MeanUnitCost  float64            `json:"mean_unit_cost"`
	FailureRate   float64            `json:"failure_rate"`
	Feasible      bool               `json:"feasible"`
}

// Comparison is the change from the baseline setpoint to the optimum.
type Comparison struct {
	YieldDelta       float64 `json:"yield_delta"`
	ObjectiveDelta   float64 `json:"objective_delta"`
	UnitCostDelta    float64 `json:"unit_cost_delta"`
	FailureRateDelta float64 `json:"failure_rate_delta"`
	AggregateDelta   float64 `json:"aggregate_delta"`
	Improvement      bool    `json:"improvement"`
}

// RefinementStep records one zoom round around the optimum.
type RefinementStep struct {
	Round     int                `json:"round"`
	Step      []float64          `json:"step"`
	Setpoint  map[string]float64 `json:"setpoint"`
	Aggregate float64            `json:"aggregate"`
}

// SweepResult is the ordered grid evaluation and the selected optimum.
// Optimum is nil when no candidate was feasible.
type SweepResult struct {
	RunID             string           `json:"run_id"`
	ProductLine       string           `json:"product_line"`
	Target            string           `json:"target"`
	N                 int              `json:"n"`
	Seed              uint64           `json:"seed"`
	Parameters        []string         `json:"parameters"`
	Points            []SweepPoint     `json:"points"`
	Feasible          bool             `json:"feasible"`
	Optimum           *SweepPoint      `json:"optimum,omitempty"`
	OptimumSummary    *Summary         `json:"optimum_summary,omitempty"`
	Baseline          SweepPoint       `json:"baseline"`
	Comparison        *Comparison      `json:"comparison,omitempty"`
	Refinement        []RefinementStep `json:"refinement,omitempty"`
	Converged         bool             `json:"converged"`
	ConvergenceReason string           `json:"convergence_reason,omitempty"`
}
