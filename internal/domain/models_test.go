package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpiricalModel_Scenario(t *testing.T) {
	ice := NewEmpiricalModel().Estimate(WeatherReading{TemperatureC: -5, WindSpeedMS: 10, HumidityPct: 85})

	assert.InDelta(t, 21.25, ice.ThicknessMM, 1e-9)
	assert.Equal(t, IceModelEmpirical, ice.Model)
}

func TestEmpiricalModel_ClampsNegativeFactor(t *testing.T) {
	tests := []struct {
		name string
		temp float64
	}{
		{"minus 20", -20},
		{"plus 15", 15},
		{"minus 10.01", -10.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ice := NewEmpiricalModel().Estimate(WeatherReading{TemperatureC: tt.temp, WindSpeedMS: 12, HumidityPct: 90})
			assert.Zero(t, ice.ThicknessMM)
		})
	}
}

func TestEmpiricalModel_NonNegativeOverGrid(t *testing.T) {
	m := NewEmpiricalModel()
	for temp := -40.0; temp <= 40; temp += 2.5 {
		for _, wind := range []float64{0, 1, 5, 15, 40} {
			for _, hum := range []float64{0, 30, 60, 100} {
				ice := m.Estimate(WeatherReading{TemperatureC: temp, WindSpeedMS: wind, HumidityPct: hum})
				require.GreaterOrEqual(t, ice.ThicknessMM, 0.0, "T=%v wind=%v hum=%v", temp, wind, hum)
			}
		}
	}
}

func TestEmpiricalModel_DurationScales(t *testing.T) {
	m := EmpiricalModel{K: 0.05, DurationHours: 48}
	ice := m.Estimate(WeatherReading{TemperatureC: -5, WindSpeedMS: 10, HumidityPct: 85})
	assert.InDelta(t, 42.5, ice.ThicknessMM, 1e-9)
}

func TestVaporPressureModel_NonNegative(t *testing.T) {
	m := VaporPressureModel{}
	for temp := -30.0; temp <= 10; temp += 1 {
		for _, hum := range []float64{0, 25, 50, 85, 100} {
			ice := m.Estimate(WeatherReading{TemperatureC: temp, HumidityPct: hum})
			require.GreaterOrEqual(t, ice.ThicknessMM, 0.0, "T=%v hum=%v", temp, hum)
			assert.Equal(t, IceModelVaporPressure, ice.Model)
		}
	}
}

func TestVaporPressureModel_SaturatedAirClampsToZero(t *testing.T) {
	// At 85% humidity ambient vapour pressure exceeds saturation over ice at -5°C.
	ice := VaporPressureModel{}.Estimate(WeatherReading{TemperatureC: -5, HumidityPct: 85})
	assert.Zero(t, ice.ThicknessMM)
}

func TestNewIceModel(t *testing.T) {
	m, err := NewIceModel("", 0)
	require.NoError(t, err)
	assert.Equal(t, IceModelEmpirical, m.Name())

	m, err = NewIceModel(IceModelEmpirical, 6)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, m.(EmpiricalModel).DurationHours, 1e-9)

	m, err = NewIceModel(IceModelVaporPressure, 0)
	require.NoError(t, err)
	assert.Equal(t, IceModelVaporPressure, m.Name())

	_, err = NewIceModel("makkonen", 0)
	require.Error(t, err)
}

func TestSheddingHeuristic(t *testing.T) {
	tests := []struct {
		name               string
		tempChange, precip float64
		wind               float64
		want               float64
	}{
		{"saturated scenario", 2.0, 0.5, 10.0, 1.0},
		{"baseline", 0, 0, 0, 0.5},
		{"moderate", 0.5, 0.2, 1.0, 0.73},
		{"no lower clamp", -5, 0, 0, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SheddingHeuristic(tt.tempChange, tt.precip, tt.wind)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSheddingHeuristic_BoundedAndMonotonic(t *testing.T) {
	steps := []float64{-10, -1, 0, 0.5, 1, 3, 10, 1e6}
	for _, a := range steps {
		for _, b := range steps {
			prev := SheddingHeuristic(a, b, steps[0])
			for _, c := range steps {
				got := SheddingHeuristic(a, b, c)
				require.LessOrEqual(t, got, 1.0)
				require.GreaterOrEqual(t, got, prev, "wind %v", c)
				prev = got

				require.GreaterOrEqual(t, SheddingHeuristic(a+1, b, c), got)
				require.GreaterOrEqual(t, SheddingHeuristic(a, b+1, c), got)
			}
		}
	}
}

func TestBounceAmplitude_Scenario(t *testing.T) {
	b := BounceAmplitude(21.25, 12.7, 300)
	assert.InDelta(t, 16.19, b, 1e-9)
	assert.Equal(t, RiskHigh, BounceRisk(b))
}

func TestDampedBounceAmplitude(t *testing.T) {
	assert.InDelta(t, 15.69, DampedBounceAmplitude(21.25, 12.7, 300, 10), 1e-9)

	// Small ice load with strong wind is fully damped.
	assert.Zero(t, DampedBounceAmplitude(0.5, 10, 100, 20))
}

func TestDampedBounceAmplitude_UsesGivenWind(t *testing.T) {
	calm := DampedBounceAmplitude(5, 12, 200, 0)
	windy := DampedBounceAmplitude(5, 12, 200, 30)
	assert.InDelta(t, 2.4, calm, 1e-9)
	assert.InDelta(t, 0.9, windy, 1e-9)
}

func TestRawBounce_StrictlyIncreasing(t *testing.T) {
	base := RawBounce(10, 12, 200)
	assert.Greater(t, RawBounce(11, 12, 200), base)
	assert.Greater(t, RawBounce(10, 13, 200), base)
	assert.Greater(t, RawBounce(10, 12, 201), base)
}

func TestBounceAmplitude_NeverNegative(t *testing.T) {
	for _, wind := range []float64{0, 5, 50, 500} {
		for _, ice := range []float64{0, 0.1, 5, 50} {
			require.GreaterOrEqual(t, DampedBounceAmplitude(ice, 10, 150, wind), 0.0)
			require.GreaterOrEqual(t, BounceAmplitude(ice, 10, 150), 0.0)
		}
	}
}
