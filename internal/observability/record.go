package observability

import (
	"errors"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
)

// Evaluation sources used as metric labels.
const (
	SourceManual  = "manual"
	SourceCity    = "city"
	SourceStream  = "stream"
	SourceMonitor = "monitor"
)

// RecordEvaluation counts a completed evaluation.
func (m *Metrics) RecordEvaluation(source string, ev domain.Evaluation) {
	m.Evaluations.WithLabelValues(source, string(ev.Assessment.CombinedRisk)).Inc()
	if ev.Assessment.ClassifierUnavailable {
		m.ClassifierFailures.Inc()
	}
}

// RecordFailure counts an evaluation that produced no assessment.
func (m *Metrics) RecordFailure(source string, err error) {
	m.EvaluationFailures.WithLabelValues(source, FailureReason(err)).Inc()
}

// FailureReason maps an evaluation error to a short, bounded label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrWeatherNotConfigured):
		return "weather_not_configured"
	case errors.Is(err, domain.ErrWeatherFetchFailed):
		return "weather_fetch_failed"
	default:
		return "other"
	}
}
