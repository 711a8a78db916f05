package domain

import (
	"fmt"
	"math"
)

// Ice model names accepted by NewIceModel.
const (
	IceModelEmpirical     = "empirical"
	IceModelVaporPressure = "vapor_pressure"
)

// IceModel estimates ice thickness from a weather reading. Risk thresholds
// downstream were tuned against each model separately, so the model in use is
// recorded on every IceEstimate.
type IceModel interface {
	Name() string
	Estimate(r WeatherReading) IceEstimate
}

// NewIceModel returns the named model. durationHours only applies to the
// empirical model; a non-positive value selects the 24h default.
func NewIceModel(name string, durationHours float64) (IceModel, error) {
	switch name {
	case "", IceModelEmpirical:
		m := NewEmpiricalModel()
		if durationHours > 0 {
			m.DurationHours = durationHours
		}
		return m, nil
	case IceModelVaporPressure:
		return VaporPressureModel{}, nil
	default:
		return nil, fmt.Errorf("unknown ice model %q", name)
	}
}

// EmpiricalModel scales wind and humidity by a temperature factor that peaks at
// 0°C and turns negative beyond ±10°C.
type EmpiricalModel struct {
	K             float64
	DurationHours float64
}

// NewEmpiricalModel returns the model with k = 0.05 over a 24h window.
func NewEmpiricalModel() EmpiricalModel {
	return EmpiricalModel{K: 0.05, DurationHours: 24}
}

func (EmpiricalModel) Name() string { return IceModelEmpirical }

func (m EmpiricalModel) Estimate(r WeatherReading) IceEstimate {
	// The temperature factor is deliberately left unclamped; only the result is.
	factor := 1 - math.Abs(r.TemperatureC)/10
	thickness := m.K * r.WindSpeedMS * r.HumidityPct * factor * (m.DurationHours / 24)
	return IceEstimate{
		ThicknessMM: round2(math.Max(thickness, 0)),
		Model:       IceModelEmpirical,
	}
}

// Constants for the vapour-pressure-difference model.
const (
	satVaporPressure0 = 610.78   // Pa
	specificHeatAir   = 1005.0   // J/(kg·K)
	atmPressure       = 101325.0 // Pa
	heatTransferCoef  = 0.24
	vaporMassRatio    = 0.62
)

// VaporPressureModel derives one hour of growth from the difference between
// saturation vapour pressure over ice and ambient vapour pressure.
type VaporPressureModel struct{}

func (VaporPressureModel) Name() string { return IceModelVaporPressure }

func (VaporPressureModel) Estimate(r WeatherReading) IceEstimate {
	t := r.TemperatureC
	es := satVaporPressure0 * math.Exp(21.87*t/(t+265.5))
	ea := satVaporPressure0 * math.Exp(21.87*(t+2)/(t+265.5)) * r.HumidityPct / 100

	rate := heatTransferCoef * (es - ea) * vaporMassRatio / (specificHeatAir * atmPressure)
	thickness := rate * 3600
	if !finite(thickness) {
		thickness = 0
	}
	return IceEstimate{
		ThicknessMM: round2(math.Max(thickness, 0)),
		Model:       IceModelVaporPressure,
	}
}
