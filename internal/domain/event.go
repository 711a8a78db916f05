package domain

import (
	"context"
	"time"
)

// WeatherReading is a snapshot of the conditions a conductor is exposed to.
type WeatherReading struct {
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	WindSpeedMS     float64 `json:"wind_speed_ms"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	CloudinessPct   float64 `json:"cloudiness_pct,omitempty"`
	TempChange6hC   float64 `json:"temp_change_6h_c,omitempty"`
}

// ConductorGeometry describes one line segment's wire and span.
type ConductorGeometry struct {
	WireDiameterMM float64 `json:"wire_diameter_mm"`
	SpanLengthM    float64 `json:"span_length_m"`
}

// IceEstimate is the modelled radial ice thickness on the conductor.
type IceEstimate struct {
	ThicknessMM float64 `json:"thickness_mm"`
	Model       string  `json:"model"`
}

// HeuristicResult is the advisory shedding score computed without the classifier.
type HeuristicResult struct {
	Probability float64   `json:"probability"`
	Risk        RiskLabel `json:"risk"`
}

// RiskAssessment is the outcome of one evaluation. It is built once and never
// mutated.
type RiskAssessment struct {
	SheddingProbability float64   `json:"shedding_probability"`
	BounceAmplitudeM    float64   `json:"bounce_amplitude_m"`
	ClassifierRisk      RiskLabel `json:"classifier_risk"`
	BounceRisk          RiskLabel `json:"bounce_risk"`
	CombinedRisk        RiskLabel `json:"combined_risk"`

	// Set when the classifier could not produce a probability and the
	// shedding side of the assessment fell back to the heuristic.
	ClassifierUnavailable bool   `json:"classifier_unavailable,omitempty"`
	ClassifierError       string `json:"classifier_error,omitempty"`
}

// Evaluation bundles an assessment with the intermediate values that produced
// it, for display and audit.
type Evaluation struct {
	ID         string            `json:"id"`
	City       string            `json:"city,omitempty"`
	Reading    WeatherReading    `json:"reading"`
	Geometry   ConductorGeometry `json:"geometry"`
	Ice        IceEstimate       `json:"ice"`
	Heuristic  HeuristicResult   `json:"heuristic"`
	Assessment RiskAssessment    `json:"assessment"`
	Policy     CombinePolicy     `json:"policy"`
	AssessedAt time.Time         `json:"assessed_at"`
}

// AssessmentRequest is the wire form of an evaluation request on the stream.
// When City is set and Reading is nil, the reading is fetched from the
// weather collaborator.
type AssessmentRequest struct {
	ID       string            `json:"id,omitempty"`
	City     string            `json:"city,omitempty"`
	Reading  *WeatherReading   `json:"reading,omitempty"`
	Geometry ConductorGeometry `json:"geometry"`
}

// AssessmentFailure is published in place of an Evaluation when a stream
// request could not be evaluated for reasons the requester can act on, such as
// the weather fetch failing. Code is a short machine-readable reason.
type AssessmentFailure struct {
	ID       string    `json:"id"`
	City     string    `json:"city,omitempty"`
	Code     string    `json:"error"`
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failed_at"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
