package physics

import "math"

// GasConstant is the molar gas constant in J/(mol·K).
const GasConstant = 8.314

const zeroCelsiusK = 273.15

// Kelvin converts degrees Celsius to kelvin.
func Kelvin(celsius float64) float64 {
	return celsius + zeroCelsiusK
}

// Celsius converts kelvin to degrees Celsius.
func Celsius(kelvin float64) float64 {
	return kelvin - zeroCelsiusK
}

// ArrheniusRate is k = A·exp(−Ea/(R·T)) with T in kelvin.
func ArrheniusRate(frequency, activation, tempK float64) float64 {
	return frequency * math.Exp(-activation/(GasConstant*tempK))
}

// FirstOrderConversion is the converted fraction 1−exp(−k·t).
func FirstOrderConversion(rate, duration float64) float64 {
	return 1 - math.Exp(-rate*duration)
}

// Q10Factor is the rate multiplier for a reaction that doubles every
// interval degrees above ref.
func Q10Factor(temp, ref, interval float64) float64 {
	return math.Pow(2, (temp-ref)/interval)
}

// GaussianResponse is exp(−(x−center)²/spread), 1 at the optimum.
func GaussianResponse(x, center, spread float64) float64 {
	d := x - center
	return math.Exp(-d * d / spread)
}

// Logistic is the dose–response curve 1/(1+exp(−(x−midpoint)·steepness)).
func Logistic(x, midpoint, steepness float64) float64 {
	return 1 / (1 + math.Exp(-(x-midpoint)*steepness))
}

// SlabDryingTime is the first-term Fick solution for the time an infinite
// slab of the given half-thickness needs to fall from moisture m0 to mt with
// equilibrium moisture me. Zero when no drying is needed.
func SlabDryingTime(halfThickness, diffusivity, m0, mt, me float64) float64 {
	if m0 <= mt {
		return 0
	}
	t := halfThickness * halfThickness / (math.Pi * math.Pi * diffusivity) *
		math.Log(8/(math.Pi*math.Pi)*(m0-me)/(mt-me))
	return math.Max(0, t)
}

// BoilingPointK is the Clausius–Clapeyron boiling point at pressure, given a
// reference boiling point at refPressure and the enthalpy of vaporization.
func BoilingPointK(pressure, refPressure, refBoilingK, enthalpy float64) float64 {
	return 1 / (1/refBoilingK - GasConstant*math.Log(pressure/refPressure)/enthalpy)
}
