package domain

import "math"

// Bounce coefficients.
const (
	bounceCoef     = 0.02
	windDampingPer = 0.05 // metres removed per m/s of wind
)

// RawBounce is the undamped, unclamped bounce amplitude in metres.
func RawBounce(iceThicknessMM, wireDiameterMM, spanLengthM float64) float64 {
	return bounceCoef * iceThicknessMM * wireDiameterMM * (spanLengthM / 100)
}

// BounceAmplitude returns the bounce amplitude in metres, clamped at zero and
// rounded to 2 decimals.
func BounceAmplitude(iceThicknessMM, wireDiameterMM, spanLengthM float64) float64 {
	return round2(math.Max(RawBounce(iceThicknessMM, wireDiameterMM, spanLengthM), 0))
}

// DampedBounceAmplitude subtracts wind damping for the wind speed of the
// evaluation in progress before clamping.
func DampedBounceAmplitude(iceThicknessMM, wireDiameterMM, spanLengthM, windSpeed float64) float64 {
	b := RawBounce(iceThicknessMM, wireDiameterMM, spanLengthM) - windDampingPer*windSpeed
	return round2(math.Max(b, 0))
}
