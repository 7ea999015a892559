package account

import "math"

// Currency amounts are kept as exact multiples of their denomination
// unit. Every helper is a no-op when unit is zero or negative.

// RoundToUnit rounds amount to the nearest multiple of unit.
func RoundToUnit(amount, unit float64) float64 {
	if unit <= 0 {
		return amount
	}
	return unit * math.Round(amount/unit)
}

// FloorToUnit rounds amount down to a multiple of unit.
func FloorToUnit(amount, unit float64) float64 {
	if unit <= 0 {
		return amount
	}
	return unit * math.Floor(amount/unit)
}

// CeilToUnit rounds amount up to a multiple of unit.
func CeilToUnit(amount, unit float64) float64 {
	if unit <= 0 {
		return amount
	}
	return unit * math.Ceil(amount/unit)
}
