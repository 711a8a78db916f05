package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client implements domain.WeatherProvider using the OpenWeatherMap current
// weather API. It makes one attempt per call; repeated failures open the
// circuit breaker and later calls fail fast until it half-opens.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. An empty apiKey yields a client
// whose every Fetch returns domain.ErrWeatherNotConfigured.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		breaker: newBreaker(logger),
		metrics: metrics,
		logger:  logger,
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("weather circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Fetch returns the current reading for city.
func (c *Client) Fetch(ctx context.Context, city string) (domain.WeatherReading, error) {
	if c.apiKey == "" {
		c.metrics.WeatherRequests.WithLabelValues("not_configured").Inc()
		return domain.WeatherReading{}, domain.ErrWeatherNotConfigured
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.WeatherReading{}, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}

	params := url.Values{
		"q":     {city},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.doRequest(ctx, fullURL)
	})
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "circuit_open"
		}
		c.metrics.WeatherRequests.WithLabelValues(outcome).Inc()
		c.logger.Warn("weather fetch failed", "city", city, "error", err)
		return domain.WeatherReading{}, fmt.Errorf("%w: %w", domain.ErrWeatherFetchFailed, err)
	}

	res := out.(result)
	if res.status != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather API rejected request", "city", city, "status", res.status)
		return domain.WeatherReading{}, fmt.Errorf("%w: openweather API error: status %d: %s",
			domain.ErrWeatherFetchFailed, res.status, res.message)
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return res.reading, nil
}

// result carries client-side rejections (4xx) out of the breaker without
// counting them as service failures.
type result struct {
	status  int
	message string
	reading domain.WeatherReading
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return result{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return result{status: resp.StatusCode, message: e.Message}, nil
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return result{}, fmt.Errorf("decode response: %w", err)
	}
	return result{status: http.StatusOK, reading: payload.reading()}, nil
}

// OpenWeatherMap API response types.

type response struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain volume `json:"rain"`
	Snow volume `json:"snow"`
}

type volume struct {
	OneH   float64 `json:"1h"`
	ThreeH float64 `json:"3h"`
}

// lastHour prefers the 1h accumulation and falls back to a third of the 3h one.
func (v volume) lastHour() float64 {
	if v.OneH > 0 {
		return v.OneH
	}
	return v.ThreeH / 3
}

type errorResponse struct {
	Message string `json:"message"`
}

// reading maps the payload onto a WeatherReading. The current-weather
// endpoint carries no history, so TempChange6hC stays zero.
func (r response) reading() domain.WeatherReading {
	return domain.WeatherReading{
		TemperatureC:    r.Main.Temp,
		HumidityPct:     r.Main.Humidity,
		WindSpeedMS:     r.Wind.Speed,
		PrecipitationMM: r.Rain.lastHour() + r.Snow.lastHour(),
		CloudinessPct:   r.Clouds.All,
	}
}
