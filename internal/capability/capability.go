// Package capability computes process capability indices of an outcome
// distribution against a spec limit. It is descriptive only.
package capability

import (
	"math"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// MaxSigmaLevel is reported once defects fall below 3.4 per million.
const MaxSigmaLevel = 6.0

// Analyze computes Cp, Cpk, Cpu and Cpl for a distribution with the given
// mean and standard deviation. A zero, negative or non-finite spread yields
// the explicit undefined status instead of infinite indices.
func Analyze(mean, std float64, limit config.SpecLimit) models.Capability {
	if reason := undefinedReason(std); reason != "" {
		return models.Capability{
			Status: models.CapabilityUndefined,
			Reason: reason + "; capability is undefined",
		}
	}

	c := models.Capability{Status: models.CapabilityDefined}
	if limit.Upper != nil {
		c.Cpu = ptr((*limit.Upper - mean) / (3 * std))
	}
	if limit.Lower != nil {
		c.Cpl = ptr((mean - *limit.Lower) / (3 * std))
	}
	switch {
	case c.Cpu != nil && c.Cpl != nil:
		c.Cpk = ptr(math.Min(*c.Cpu, *c.Cpl))
		c.Cp = ptr((*limit.Upper - *limit.Lower) / (6 * std))
	case c.Cpu != nil:
		c.Cpk = ptr(*c.Cpu)
	case c.Cpl != nil:
		c.Cpk = ptr(*c.Cpl)
	}
	return c
}

func undefinedReason(std float64) string {
	switch {
	case math.IsNaN(std):
		return "standard deviation is NaN"
	case math.IsInf(std, 0):
		return "standard deviation is infinite"
	case std == 0:
		return "standard deviation is zero"
	case std < 0:
		return "standard deviation is negative"
	}
	return ""
}

// PassRate is the fraction of values inside the limit.
func PassRate(values []float64, limit config.SpecLimit) float64 {
	if len(values) == 0 {
		return 0
	}
	pass := 0
	for _, v := range values {
		if limit.Contains(v) {
			pass++
		}
	}
	return float64(pass) / float64(len(values))
}

// SigmaLevel converts a pass rate to a short-term sigma level using the
// 1.5σ-shifted approximation 0.8406 + sqrt(29.37 − 2.221·ln(DPMO)).
func SigmaLevel(passRate float64) float64 {
	dpmo := (1 - passRate) * 1e6
	if dpmo < 3.4 {
		return MaxSigmaLevel
	}
	arg := 29.37 - 2.221*math.Log(dpmo)
	if arg <= 0 {
		return 0
	}
	return 0.8406 + math.Sqrt(arg)
}

// Evaluate runs the full analysis of one spec limit over a sample.
func Evaluate(values []float64, mean, std float64, limit config.SpecLimit) models.SpecResult {
	passRate := PassRate(values, limit)
	c := Analyze(mean, std, limit)
	c.SigmaLevel = SigmaLevel(passRate)
	return models.SpecResult{
		Name:       limit.Name,
		Outcome:    limit.Outcome,
		Lower:      limit.Lower,
		Upper:      limit.Upper,
		Nominal:    limit.Nominal,
		PassRate:   passRate,
		Capability: c,
	}
}

func ptr(v float64) *float64 {
	return &v
}
