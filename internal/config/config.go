package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Risk engine.
	IceModel             string
	IceAccumulationHours float64
	BounceWindDamping    bool
	CombinePolicy        domain.CombinePolicy
	FeatureSchema        domain.FeatureSchema
	ClassifierPath       string

	// Weather collaborator. An empty key leaves the weather feature unconfigured.
	OpenWeatherAPIKey string
	WeatherTimeout    time.Duration

	// Segment reference table (CSV or SQLite). Empty disables the overlay.
	SegmentsPath string

	// Evaluation stream.
	StreamEnabled      bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Scheduled monitor. No cities disables it.
	MonitorCities         []string
	MonitorInterval       time.Duration
	MonitorWireDiameterMM float64
	MonitorSpanLengthM    float64
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is read first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		IceModel:       strings.ToLower(sharedcfg.EnvOrDefault("ICE_MODEL", domain.IceModelEmpirical)),
		ClassifierPath: sharedcfg.EnvOrDefault("CLASSIFIER_PATH", "models/shedding_classifier.json"),

		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		SegmentsPath:      os.Getenv("SEGMENTS_PATH"),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "assessment-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "risk-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "icerisk"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MonitorCities: parseList(os.Getenv("MONITOR_CITIES")),
	}

	if cfg.IceAccumulationHours, err = parsePositiveFloat("ICE_ACCUMULATION_HOURS", "24"); err != nil {
		return nil, err
	}
	if cfg.BounceWindDamping, err = parseBool("BOUNCE_WIND_DAMPING", "true"); err != nil {
		return nil, err
	}
	if cfg.CombinePolicy, err = domain.ParseCombinePolicy(sharedcfg.EnvOrDefault("COMBINE_POLICY", string(domain.PolicyMax))); err != nil {
		return nil, fmt.Errorf("invalid COMBINE_POLICY: %w", err)
	}
	if cfg.FeatureSchema, err = domain.ParseFeatureSchema(sharedcfg.EnvOrDefault("FEATURE_SCHEMA", string(domain.SchemaManual))); err != nil {
		return nil, fmt.Errorf("invalid FEATURE_SCHEMA: %w", err)
	}
	if _, err := domain.NewIceModel(cfg.IceModel, cfg.IceAccumulationHours); err != nil {
		return nil, fmt.Errorf("invalid ICE_MODEL: %w", err)
	}

	if cfg.WeatherTimeout, err = parsePositiveDuration("WEATHER_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	if cfg.StreamEnabled, err = parseBool("STREAM_ENABLED", "false"); err != nil {
		return nil, err
	}

	if cfg.MonitorInterval, err = parsePositiveDuration("MONITOR_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.MonitorWireDiameterMM, err = parsePositiveFloat("MONITOR_WIRE_DIAMETER_MM", "12.7"); err != nil {
		return nil, err
	}
	if cfg.MonitorSpanLengthM, err = parsePositiveFloat("MONITOR_SPAN_LENGTH_M", "300"); err != nil {
		return nil, err
	}

	if cfg.StreamEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if len(cfg.MonitorCities) > 0 && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("MONITOR_CITIES is set but OPENWEATHER_API_KEY is not")
	}

	return cfg, nil
}

// WeatherConfigured reports whether a weather credential is present.
func (c *Config) WeatherConfigured() bool { return c.OpenWeatherAPIKey != "" }

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(key, def string) (bool, error) {
	v, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
