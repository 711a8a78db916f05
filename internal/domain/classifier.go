package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// FeatureSchema names the column layout a trained classifier expects.
type FeatureSchema string

const (
	// SchemaManual is the layout for operator-entered readings.
	SchemaManual FeatureSchema = "manual"
	// SchemaWeather replaces the 6h temperature change with the precipitation
	// and cloudiness reported by the weather service.
	SchemaWeather FeatureSchema = "weather"
)

// Feature names, in the exact order the classifiers were trained on.
var (
	manualFeatures = []string{
		"temperature", "wind_speed", "humidity", "ice_thickness",
		"temp_change_last_6h", "wire_diameter", "span_length",
	}
	weatherFeatures = []string{
		"temperature", "wind_speed", "humidity", "ice_thickness",
		"precipitation", "cloudiness", "wire_diameter", "span_length",
	}
)

// ParseFeatureSchema validates a schema name; empty selects SchemaManual.
func ParseFeatureSchema(s string) (FeatureSchema, error) {
	switch FeatureSchema(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemaManual:
		return SchemaManual, nil
	case SchemaWeather:
		return SchemaWeather, nil
	default:
		return "", fmt.Errorf("unknown feature schema %q", s)
	}
}

// Names returns a copy of the schema's ordered feature names.
func (s FeatureSchema) Names() []string {
	if s == SchemaWeather {
		return append([]string(nil), weatherFeatures...)
	}
	return append([]string(nil), manualFeatures...)
}

// FeatureVector is an ordered numeric tuple with the name of each column.
type FeatureVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// BuildFeatures lays out the classifier input for the given schema.
func BuildFeatures(schema FeatureSchema, r WeatherReading, ice IceEstimate, g ConductorGeometry) FeatureVector {
	var values []float64
	switch schema {
	case SchemaWeather:
		values = []float64{
			r.TemperatureC, r.WindSpeedMS, r.HumidityPct, ice.ThicknessMM,
			r.PrecipitationMM, r.CloudinessPct, g.WireDiameterMM, g.SpanLengthM,
		}
	default:
		values = []float64{
			r.TemperatureC, r.WindSpeedMS, r.HumidityPct, ice.ThicknessMM,
			r.TempChange6hC, g.WireDiameterMM, g.SpanLengthM,
		}
	}
	return FeatureVector{Names: schema.Names(), Values: values}
}

// Classifier is a pre-trained binary classifier treated as a black box.
type Classifier interface {
	// ProbabilityOfShedding returns the probability of the positive class.
	ProbabilityOfShedding(ctx context.Context, features FeatureVector) (float64, error)
}

// ClassifierResult is the adapter's view of one classifier call.
type ClassifierResult struct {
	Probability float64
	Risk        RiskLabel
	Unavailable bool
	Err         error
}

// PredictShedding calls the classifier and degrades any failure to
// probability 0.0 with an Unknown label. The failure is reported on the
// result rather than returned.
func PredictShedding(ctx context.Context, c Classifier, features FeatureVector) (res ClassifierResult) {
	defer func() {
		if r := recover(); r != nil {
			res = unavailable(fmt.Errorf("%w: classifier panicked: %v", ErrClassifierUnavailable, r))
		}
	}()

	if c == nil {
		return unavailable(fmt.Errorf("%w: no classifier configured", ErrClassifierUnavailable))
	}

	p, err := c.ProbabilityOfShedding(ctx, features)
	if err != nil {
		return unavailable(fmt.Errorf("%w: %w", ErrClassifierUnavailable, err))
	}
	if math.IsNaN(p) {
		return unavailable(fmt.Errorf("%w: classifier returned NaN", ErrClassifierUnavailable))
	}

	p = math.Min(math.Max(p, 0), 1)
	return ClassifierResult{Probability: p, Risk: ProbabilityRisk(p)}
}

func unavailable(err error) ClassifierResult {
	return ClassifierResult{
		Probability: 0,
		Risk:        RiskUnknown,
		Unavailable: true,
		Err:         err,
	}
}
