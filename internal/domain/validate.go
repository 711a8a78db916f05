package domain

import (
	"fmt"
	"math"
)

// Validate rejects geometry that no physical span can have.
func (g ConductorGeometry) Validate() error {
	if !finite(g.WireDiameterMM) || g.WireDiameterMM <= 0 {
		return fmt.Errorf("%w: wire diameter must be > 0 mm, got %v", ErrInvalidInput, g.WireDiameterMM)
	}
	if !finite(g.SpanLengthM) || g.SpanLengthM <= 0 {
		return fmt.Errorf("%w: span length must be > 0 m, got %v", ErrInvalidInput, g.SpanLengthM)
	}
	return nil
}

// Validate rejects readings outside their physical ranges. Temperature and
// the 6h temperature change are signed and only need to be finite.
func (r WeatherReading) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"temperature", r.TemperatureC},
		{"humidity", r.HumidityPct},
		{"wind speed", r.WindSpeedMS},
		{"precipitation", r.PrecipitationMM},
		{"cloudiness", r.CloudinessPct},
		{"temperature change", r.TempChange6hC},
	}
	for _, c := range checks {
		if !finite(c.v) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, c.name)
		}
	}

	if r.HumidityPct < 0 || r.HumidityPct > 100 {
		return fmt.Errorf("%w: humidity must be within 0-100%%, got %v", ErrInvalidInput, r.HumidityPct)
	}
	if r.CloudinessPct < 0 || r.CloudinessPct > 100 {
		return fmt.Errorf("%w: cloudiness must be within 0-100%%, got %v", ErrInvalidInput, r.CloudinessPct)
	}
	if r.WindSpeedMS < 0 {
		return fmt.Errorf("%w: wind speed must be >= 0 m/s, got %v", ErrInvalidInput, r.WindSpeedMS)
	}
	if r.PrecipitationMM < 0 {
		return fmt.Errorf("%w: precipitation must be >= 0 mm, got %v", ErrInvalidInput, r.PrecipitationMM)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round2 rounds to two decimal places, the precision every model reports.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
