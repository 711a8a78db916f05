package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/monitor"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AllReady is ready when every checker is.
type AllReady []ReadinessChecker

func (a AllReady) CheckReadiness(ctx context.Context) error {
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Assessor runs evaluations for the API.
type Assessor interface {
	Assess(ctx context.Context, r domain.WeatherReading, g domain.ConductorGeometry) (domain.Evaluation, error)
	AssessCity(ctx context.Context, city string, g domain.ConductorGeometry) (domain.Evaluation, error)
}

// MarkerSource serves the segment overlay.
type MarkerSource interface {
	Markers(ctx context.Context) ([]domain.Marker, error)
}

// MonitorSource serves the latest monitor outcomes.
type MonitorSource interface {
	Latest() []monitor.Result
}

// Deps are the collaborators behind the API routes. Monitor may be nil.
type Deps struct {
	Engine   Assessor
	Segments MarkerSource
	Monitor  MonitorSource
	Ready    ReadinessChecker
	Metrics  *observability.Metrics
}

// Server exposes the assessment API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/assessments", s.handleAssess)
	mux.HandleFunc("GET /v1/assessments/city", s.handleAssessCity)
	mux.HandleFunc("GET /v1/segments", s.handleSegments)
	mux.HandleFunc("GET /v1/monitor", s.handleMonitor)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", validationMessage(err))
		return
	}

	reading, geometry := req.resolve()
	ev, err := s.deps.Engine.Assess(r.Context(), reading, geometry)
	if err != nil {
		s.deps.Metrics.RecordFailure(observability.SourceManual, err)
		s.writeEvaluationError(w, err)
		return
	}
	s.deps.Metrics.RecordEvaluation(observability.SourceManual, ev)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleAssessCity(w http.ResponseWriter, r *http.Request) {
	q, err := parseCityQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	ev, err := s.deps.Engine.AssessCity(r.Context(), q.City, q.geometry())
	if err != nil {
		s.deps.Metrics.RecordFailure(observability.SourceCity, err)
		s.writeEvaluationError(w, err)
		return
	}
	s.deps.Metrics.RecordEvaluation(observability.SourceCity, ev)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	markers, err := s.deps.Segments.Markers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "reference_data_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": markers})
}

func (s *Server) handleMonitor(w http.ResponseWriter, _ *http.Request) {
	results := []monitor.Result{}
	if s.deps.Monitor != nil {
		results = s.deps.Monitor.Latest()
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": results})
}

// writeEvaluationError maps engine errors to statuses. Weather not being
// configured and the fetch failing are reported differently so operators can
// tell a missing credential from an outage.
func (s *Server) writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrWeatherNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "weather_not_configured", err.Error())
	case errors.Is(err, domain.ErrWeatherFetchFailed):
		writeError(w, http.StatusBadGateway, "weather_fetch_failed", err.Error())
	default:
		s.logger.Error("evaluation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "evaluation failed")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

// writeJSON encodes v before committing the status, so a value that cannot be
// encoded turns into a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "internal", "message": "response encoding failed"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // best-effort response
}
