// Command icerisk runs one-off risk assessments and manages the segment
// reference table from the command line. Engine settings come from the same
// environment variables as the service.
//
// Usage:
//
//	icerisk assess --temperature=-5 --wind=10 --humidity=85
//	icerisk city Yekaterinburg --span=250
//	icerisk segments list --path=segments.csv
//	icerisk segments import segments.csv segments.db
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/classifier"
	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/openweather"
	"github.com/couchcryptid/conductor-ice-risk/internal/adapter/segments"
	"github.com/couchcryptid/conductor-ice-risk/internal/config"
	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
)

type globals struct {
	ctx     context.Context
	out     io.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// GeometryFlags are the conductor flags shared by the assessment commands.
type GeometryFlags struct {
	Diameter float64 `help:"Wire diameter in mm." default:"12.7"`
	Span     float64 `help:"Span length in m." default:"300"`
}

func (g GeometryFlags) geometry() domain.ConductorGeometry {
	return domain.ConductorGeometry{WireDiameterMM: g.Diameter, SpanLengthM: g.Span}
}

type assessCmd struct {
	Temperature   float64       `help:"Air temperature in °C." default:"-5"`
	Wind          float64       `help:"Wind speed in m/s." default:"10"`
	Humidity      float64       `help:"Relative humidity in %." default:"85"`
	Precipitation float64       `help:"Precipitation over the last hour in mm." default:"0"`
	Cloudiness    float64       `help:"Cloud cover in %." default:"0"`
	TempChange    float64       `name:"temp-change" help:"Temperature change over the last 6h in °C." default:"0"`
	Geometry      GeometryFlags `embed:""`
}

func (c *assessCmd) Run(g *globals) error {
	engine, err := newEngine(g.logger, g.metrics)
	if err != nil {
		return err
	}
	ev, err := engine.Assess(g.ctx, domain.WeatherReading{
		TemperatureC:    c.Temperature,
		WindSpeedMS:     c.Wind,
		HumidityPct:     c.Humidity,
		PrecipitationMM: c.Precipitation,
		CloudinessPct:   c.Cloudiness,
		TempChange6hC:   c.TempChange,
	}, c.Geometry.geometry())
	if err != nil {
		return err
	}
	return printJSON(g.out, ev)
}

type cityCmd struct {
	City     string        `arg:"" help:"City name as understood by OpenWeather."`
	Geometry GeometryFlags `embed:""`
}

func (c *cityCmd) Run(g *globals) error {
	engine, err := newEngine(g.logger, g.metrics)
	if err != nil {
		return err
	}
	ev, err := engine.AssessCity(g.ctx, c.City, c.Geometry.geometry())
	if err != nil {
		return err
	}
	return printJSON(g.out, ev)
}

type segmentsListCmd struct {
	Path string `help:"Segment table (.csv or .db)." env:"SEGMENTS_PATH" required:""`
}

func (c *segmentsListCmd) Run(g *globals) error {
	markers, err := segments.NewTable(c.Path, g.metrics, g.logger).Markers(g.ctx)
	if err != nil {
		return err
	}
	return printJSON(g.out, markers)
}

type segmentsImportCmd struct {
	Source string `arg:"" help:"CSV file to read." type:"existingfile"`
	Target string `arg:"" help:"SQLite database to write."`
}

func (c *segmentsImportCmd) Run(g *globals) error {
	segs, err := segments.Load(g.ctx, c.Source)
	if err != nil {
		return err
	}
	if err := segments.Import(g.ctx, c.Target, segs); err != nil {
		return err
	}
	fmt.Fprintf(g.out, "imported %d segments into %s\n", len(segs), c.Target)
	return nil
}

type segmentsCmd struct {
	List   segmentsListCmd   `cmd:"" help:"Print segment markers as JSON."`
	Import segmentsImportCmd `cmd:"" help:"Copy a CSV segment table into SQLite."`
}

var cli struct {
	Assess   assessCmd   `cmd:"" help:"Assess a manually entered reading."`
	City     cityCmd     `cmd:"" help:"Assess the current weather in a city."`
	Segments segmentsCmd `cmd:"" help:"Inspect or import the segment reference table."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("icerisk"),
		kong.Description("Ice-shedding and conductor-bounce risk assessment."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	err := kctx.Run(&globals{
		ctx:     ctx,
		out:     os.Stdout,
		logger:  logger,
		metrics: observability.NewUnregisteredMetrics(),
	})
	kctx.FatalIfErrorf(err)
}

// newEngine builds the engine from environment configuration, the same way
// the service does.
func newEngine(logger *slog.Logger, metrics *observability.Metrics) (*domain.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	iceModel, err := domain.NewIceModel(cfg.IceModel, cfg.IceAccumulationHours)
	if err != nil {
		return nil, err
	}

	var weather domain.WeatherProvider
	if cfg.WeatherConfigured() {
		weather = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.WeatherTimeout, metrics, logger)
	}

	return domain.NewEngine(domain.EngineConfig{
		IceModel:       iceModel,
		Classifier:     classifier.NewHandle(cfg.ClassifierPath, cfg.FeatureSchema, logger),
		Schema:         cfg.FeatureSchema,
		Policy:         cfg.CombinePolicy,
		WindDamping:    cfg.BounceWindDamping,
		Weather:        weather,
		WeatherTimeout: cfg.WeatherTimeout,
		Logger:         logger,
	}), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
