package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type stubAssessor struct {
	mu     sync.Mutex
	fail   map[string]error
	calls  map[string]int
	geoms  []domain.ConductorGeometry
	risk   domain.RiskLabel
	called chan struct{}
}

func newStubAssessor() *stubAssessor {
	return &stubAssessor{
		fail:   map[string]error{},
		calls:  map[string]int{},
		risk:   domain.RiskMedium,
		called: make(chan struct{}, 64),
	}
}

func (s *stubAssessor) AssessCity(_ context.Context, city string, g domain.ConductorGeometry) (domain.Evaluation, error) {
	s.mu.Lock()
	s.calls[city]++
	s.geoms = append(s.geoms, g)
	err := s.fail[city]
	risk := s.risk
	s.mu.Unlock()

	select {
	case s.called <- struct{}{}:
	default:
	}
	if err != nil {
		return domain.Evaluation{}, err
	}
	return domain.Evaluation{
		City:       city,
		Assessment: domain.RiskAssessment{CombinedRisk: risk},
		AssessedAt: time.Date(2025, time.January, 14, 6, 30, 0, 0, time.UTC),
	}, nil
}

func (s *stubAssessor) setFailure(city string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[city] = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testGeometry = domain.ConductorGeometry{WireDiameterMM: 12.7, SpanLengthM: 300}

// --- tests ---

func TestMonitor_Sweep(t *testing.T) {
	stub := newStubAssessor()
	stub.setFailure("Atlantis", fmt.Errorf("%w: city not found", domain.ErrWeatherFetchFailed))
	metrics := observability.NewMetricsForTesting()

	m := New(stub, []string{"Tver", "Atlantis", "Omsk"}, testGeometry, time.Minute, metrics, discardLogger())
	m.Sweep(context.Background())

	latest := m.Latest()
	require.Len(t, latest, 3)
	assert.Equal(t, "Atlantis", latest[0].City)
	assert.Nil(t, latest[0].Evaluation)
	assert.Contains(t, latest[0].Error, "city not found")
	assert.Equal(t, "Omsk", latest[1].City)
	require.NotNil(t, latest[1].Evaluation)
	assert.Equal(t, domain.RiskMedium, latest[1].Evaluation.Assessment.CombinedRisk)
	assert.Empty(t, latest[1].Error)

	for _, g := range stub.geoms {
		assert.Equal(t, testGeometry, g)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MonitorRuns), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Evaluations.WithLabelValues(observability.SourceMonitor, "Medium")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EvaluationFailures.WithLabelValues(observability.SourceMonitor, "weather_fetch_failed")), 1e-9)
}

func TestMonitor_FailureReplacesPreviousEvaluation(t *testing.T) {
	stub := newStubAssessor()
	m := New(stub, []string{"Tver"}, testGeometry, time.Minute, observability.NewMetricsForTesting(), discardLogger())

	m.Sweep(context.Background())
	require.NotNil(t, m.Latest()[0].Evaluation)

	stub.setFailure("Tver", errors.New("timeout"))
	m.Sweep(context.Background())

	latest := m.Latest()
	require.Len(t, latest, 1)
	assert.Nil(t, latest[0].Evaluation, "a failed fetch must not keep serving the old reading")
	assert.Equal(t, "timeout", latest[0].Error)
}

func TestMonitor_StartRunsOnSchedule(t *testing.T) {
	stub := newStubAssessor()
	metrics := observability.NewMetricsForTesting()
	m := New(stub, []string{"Tver"}, testGeometry, 50*time.Millisecond, metrics, discardLogger())

	require.NoError(t, m.Start())
	t.Cleanup(m.Stop)

	for range 2 {
		select {
		case <-stub.called:
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not run")
		}
	}
	assert.Eventually(t, func() bool { return testutil.ToFloat64(metrics.MonitorRuns) >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestMonitor_StartWithoutCities(t *testing.T) {
	m := New(newStubAssessor(), nil, testGeometry, time.Minute, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, m.Start())
	m.Stop()
	assert.Empty(t, m.Latest())
}
