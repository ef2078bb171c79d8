package engine

import (
	"fmt"
	"sort"
	"strings"
)

// SamplingError reports an invalid sampling request: a distribution with
// out-of-domain parameters, or a setpoint the line does not accept.
type SamplingError struct {
	Variable     string
	Distribution string
	Reason       string
}

func (e *SamplingError) Error() string {
	if e.Distribution != "" {
		return fmt.Sprintf("sampling error for %s %s: %s", e.Variable, e.Distribution, e.Reason)
	}
	return fmt.Sprintf("sampling error for %s: %s", e.Variable, e.Reason)
}

// ParamRange is the observed span of one parameter within a batch.
type ParamRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NumericDomainError reports a NaN, Inf or physically impossible value
// produced mid-evaluation. The whole batch is rejected.
type NumericDomainError struct {
	Model    string
	Quantity string
	// Index is the global scenario index of the first offending value;
	// [Start, End) is the index range of the batch that contained it.
	Index  int
	Start  int
	End    int
	Value  float64
	Reason string
	Params map[string]ParamRange
	Inputs map[string]float64
}

func (e *NumericDomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "numeric domain error in %s: %s = %v at scenario %d (batch [%d, %d))",
		e.Model, e.Quantity, e.Value, e.Index, e.Start, e.End)
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if len(e.Inputs) > 0 {
		names := make([]string, 0, len(e.Inputs))
		for name := range e.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("; parameters:")
		for _, name := range names {
			r := e.Params[name]
			fmt.Fprintf(&b, " %s=%g (batch range [%g, %g])", name, e.Inputs[name], r.Min, r.Max)
		}
	}
	return b.String()
}
