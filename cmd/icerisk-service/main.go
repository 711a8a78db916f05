package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/classifier"
	httpadapter "github.com/couchcryptid/conductor-ice-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/conductor-ice-risk/internal/adapter/kafka"
	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/openweather"
	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/segments"
	"github.com/couchcryptid/conductor-ice-risk/internal/config"
	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/monitor"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/couchcryptid/conductor-ice-risk/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	iceModel, err := domain.NewIceModel(cfg.IceModel, cfg.IceAccumulationHours)
	if err != nil {
		logger.Error("invalid ice model", "error", err)
		os.Exit(1)
	}

	// A missing or malformed artifact is not fatal: evaluations degrade to the
	// heuristic and /readyz reports the failure.
	cls := classifier.NewHandle(cfg.ClassifierPath, cfg.FeatureSchema, logger)
	if err := cls.Load(); err == nil {
		metrics.ClassifierLoaded.Set(1)
	}

	var weather domain.WeatherProvider
	if cfg.WeatherConfigured() {
		weather = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.WeatherTimeout, metrics, logger)
		logger.Info("openweather enabled", "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("openweather disabled; city assessments will report weather_not_configured")
	}

	engine := domain.NewEngine(domain.EngineConfig{
		IceModel:       iceModel,
		Classifier:     cls,
		Schema:         cfg.FeatureSchema,
		Policy:         cfg.CombinePolicy,
		WindDamping:    cfg.BounceWindDamping,
		Weather:        weather,
		WeatherTimeout: cfg.WeatherTimeout,
		Logger:         logger,
	})
	logger.Info("risk engine ready",
		"ice_model", engine.IceModel(),
		"policy", cfg.CombinePolicy,
		"schema", cfg.FeatureSchema,
		"wind_damping", cfg.BounceWindDamping,
	)

	// Load the overlay up front so a request deadline never decides its fate.
	table := segments.NewTable(cfg.SegmentsPath, metrics, logger)
	if cfg.SegmentsPath != "" {
		_, _ = table.Segments(context.Background())
	} else {
		logger.Info("segment overlay disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ready := httpadapter.AllReady{engine}

	// Start evaluation stream (feature-flagged via STREAM_ENABLED).
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.StreamEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(engine, metrics, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("evaluation stream disabled")
	}

	// Start city monitor when cities are configured.
	var mon *monitor.Monitor
	if len(cfg.MonitorCities) > 0 {
		geometry := domain.ConductorGeometry{
			WireDiameterMM: cfg.MonitorWireDiameterMM,
			SpanLengthM:    cfg.MonitorSpanLengthM,
		}
		mon = monitor.New(engine, cfg.MonitorCities, geometry, cfg.MonitorInterval, metrics, logger)
		if err := mon.Start(); err != nil {
			logger.Error("monitor start failed", "error", err)
			os.Exit(1)
		}
	}

	deps := httpadapter.Deps{
		Engine:   engine,
		Segments: table,
		Ready:    ready,
		Metrics:  metrics,
	}
	if mon != nil {
		deps.Monitor = mon
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, deps, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if mon != nil {
		mon.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
