package domain

import "math"

// SheddingHeuristic is a bounded linear score of how likely ice is to drop.
// It is advisory and only stands in for the classifier when that is
// unavailable. The score is capped at 1.0 but has no lower bound: negative
// temperature change, precipitation or wind can drive it below zero.
func SheddingHeuristic(tempChange6h, precipitation, windSpeed float64) float64 {
	p := 0.5 + 0.2*tempChange6h + 0.15*precipitation + 0.1*windSpeed
	return round2(math.Min(p, 1.0))
}
