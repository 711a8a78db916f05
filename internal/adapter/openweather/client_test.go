package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		breaker:    newBreaker(logger),
		metrics:    metrics,
		logger:     logger,
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Yekaterinburg", r.URL.Query().Get("q"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{
			"main": {"temp": -4.6, "humidity": 91, "pressure": 1012},
			"wind": {"speed": 7.2},
			"clouds": {"all": 100},
			"rain": {"1h": 0.3},
			"snow": {"3h": 0.6}
		}`)
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	reading, err := testClient(srv.URL, m).Fetch(context.Background(), " Yekaterinburg ")
	require.NoError(t, err)

	assert.InDelta(t, -4.6, reading.TemperatureC, 1e-9)
	assert.InDelta(t, 91, reading.HumidityPct, 1e-9)
	assert.InDelta(t, 7.2, reading.WindSpeedMS, 1e-9)
	assert.InDelta(t, 100, reading.CloudinessPct, 1e-9)
	assert.InDelta(t, 0.5, reading.PrecipitationMM, 1e-9)
	assert.Zero(t, reading.TempChange6hC)
	require.NoError(t, reading.Validate())

	assert.InDelta(t, 1, testutil.ToFloat64(m.WeatherRequests.WithLabelValues("success")), 1e-9)
}

func TestClient_Fetch_NoPrecipitation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"main": {"temp": 2, "humidity": 40}, "wind": {"speed": 1}, "clouds": {"all": 0}}`)
	}))
	defer srv.Close()

	reading, err := testClient(srv.URL, observability.NewMetricsForTesting()).Fetch(context.Background(), "Sochi")
	require.NoError(t, err)
	assert.Zero(t, reading.PrecipitationMM)
}

func TestClient_Fetch_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := testClient(srv.URL, m)
	c.apiKey = ""

	_, err := c.Fetch(context.Background(), "Moscow")
	require.ErrorIs(t, err, domain.ErrWeatherNotConfigured)
	assert.Zero(t, calls.Load(), "no request without a key")
	assert.InDelta(t, 1, testutil.ToFloat64(m.WeatherRequests.WithLabelValues("not_configured")), 1e-9)
}

func TestClient_Fetch_EmptyCity(t *testing.T) {
	c := testClient("http://127.0.0.1:0", observability.NewMetricsForTesting())
	_, err := c.Fetch(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_Fetch_CityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, observability.NewMetricsForTesting()).Fetch(context.Background(), "Atlantis")
	require.ErrorIs(t, err, domain.ErrWeatherFetchFailed)
	assert.NotErrorIs(t, err, domain.ErrWeatherNotConfigured)
	assert.Contains(t, err.Error(), "city not found")
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, observability.NewMetricsForTesting()).Fetch(context.Background(), "Moscow")
	require.ErrorIs(t, err, domain.ErrWeatherFetchFailed)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Fetch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, observability.NewMetricsForTesting()).Fetch(context.Background(), "Moscow")
	require.ErrorIs(t, err, domain.ErrWeatherFetchFailed)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Fetch_NoRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, observability.NewMetricsForTesting()).Fetch(context.Background(), "Moscow")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := testClient(srv.URL, m)

	// The default breaker trips after more than five consecutive failures.
	for range 6 {
		_, err := c.Fetch(context.Background(), "Moscow")
		require.ErrorIs(t, err, domain.ErrWeatherFetchFailed)
	}
	require.Equal(t, int32(6), calls.Load())

	_, err := c.Fetch(context.Background(), "Moscow")
	require.ErrorIs(t, err, domain.ErrWeatherFetchFailed)
	assert.Equal(t, int32(6), calls.Load(), "open circuit fails fast")
	assert.InDelta(t, 1, testutil.ToFloat64(m.WeatherRequests.WithLabelValues("circuit_open")), 1e-9)
}

func TestClient_Fetch_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	for range 8 {
		_, _ = c.Fetch(context.Background(), "Nowhere")
	}
	assert.Equal(t, int32(8), calls.Load())
}
