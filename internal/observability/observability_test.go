package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "city", "Tver")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "Tver", line["city"])
	assert.Equal(t, "icerisk", line["service"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "TEXT").Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestRecordEvaluation(t *testing.T) {
	m := NewMetricsForTesting()

	ev := domain.Evaluation{Assessment: domain.RiskAssessment{CombinedRisk: domain.RiskHigh, ClassifierUnavailable: true}}
	m.RecordEvaluation(SourceManual, ev)
	m.RecordEvaluation(SourceManual, ev)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Evaluations.WithLabelValues(SourceManual, "High")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ClassifierFailures), 1e-9)
}

func TestNewUnregisteredMetrics(t *testing.T) {
	a := NewUnregisteredMetrics()
	b := NewUnregisteredMetrics()

	// Neither instance is on the default registry, so registering one succeeds.
	require.NoError(t, prometheus.DefaultRegisterer.Register(a.Evaluations))
	t.Cleanup(func() { prometheus.DefaultRegisterer.Unregister(a.Evaluations) })

	b.RecordEvaluation(SourceManual, domain.Evaluation{Assessment: domain.RiskAssessment{CombinedRisk: domain.RiskLow}})
	assert.InDelta(t, 1, testutil.ToFloat64(b.Evaluations.WithLabelValues(SourceManual, "Low")), 1e-9)
	assert.Zero(t, testutil.ToFloat64(a.Evaluations.WithLabelValues(SourceManual, "Low")))
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: span", domain.ErrInvalidInput), "invalid_input"},
		{domain.ErrWeatherNotConfigured, "weather_not_configured"},
		{fmt.Errorf("%w: timeout", domain.ErrWeatherFetchFailed), "weather_fetch_failed"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureReason(tt.err))
	}

	m := NewMetricsForTesting()
	m.RecordFailure(SourceCity, domain.ErrWeatherNotConfigured)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EvaluationFailures.WithLabelValues(SourceCity, "weather_not_configured")), 1e-9)
}
