// Package classifier loads the persisted shedding classifier and serves its
// positive-class probability to the risk engine.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"gonum.org/v1/gonum/floats"
)

var errShapeMismatch = errors.New("feature schema mismatch")

// Artifact is the persisted form of a trained logistic-regression classifier.
type Artifact struct {
	Schema       domain.FeatureSchema `json:"schema"`
	Features     []string             `json:"features"`
	Coefficients []float64            `json:"coefficients"`
	Intercept    float64              `json:"intercept"`
}

// Validate checks that the artifact is internally consistent and matches the
// feature layout the engine will send.
func (a Artifact) Validate(schema domain.FeatureSchema) error {
	if len(a.Features) == 0 {
		return errors.New("artifact has no features")
	}
	if len(a.Coefficients) != len(a.Features) {
		return fmt.Errorf("artifact has %d coefficients for %d features", len(a.Coefficients), len(a.Features))
	}
	for i, c := range a.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d (%s) is not finite", i, a.Features[i])
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return errors.New("intercept is not finite")
	}
	if a.Schema != "" && a.Schema != schema {
		return fmt.Errorf("%w: artifact trained on %q, engine configured for %q", errShapeMismatch, a.Schema, schema)
	}
	if want := schema.Names(); !slices.Equal(a.Features, want) {
		return fmt.Errorf("%w: artifact features %v, engine sends %v", errShapeMismatch, a.Features, want)
	}
	return nil
}

// Probability returns sigmoid(w·x + b).
func (a Artifact) Probability(values []float64) (float64, error) {
	if len(values) != len(a.Coefficients) {
		return 0, fmt.Errorf("%w: got %d values, artifact expects %d", errShapeMismatch, len(values), len(a.Coefficients))
	}
	z := floats.Dot(a.Coefficients, values) + a.Intercept
	return 1 / (1 + math.Exp(-z)), nil
}

// Handle is a lazily loaded, process-lifetime classifier. The artifact is read
// on first use and never reloaded; a failed load stays failed until restart.
// After loading, the handle is read-only and safe for concurrent use.
type Handle struct {
	path   string
	schema domain.FeatureSchema
	logger *slog.Logger

	once     sync.Once
	artifact Artifact
	err      error
}

// NewHandle creates a handle for the artifact at path. Nothing is read until
// Load or ProbabilityOfShedding is first called.
func NewHandle(path string, schema domain.FeatureSchema, logger *slog.Logger) *Handle {
	return &Handle{path: path, schema: schema, logger: logger}
}

// Load reads and validates the artifact exactly once.
func (h *Handle) Load() error {
	h.once.Do(func() {
		h.artifact, h.err = readArtifact(h.path, h.schema)
		if h.err != nil {
			h.logger.Error("classifier load failed", "path", h.path, "error", h.err)
			return
		}
		h.logger.Info("classifier loaded",
			"path", h.path,
			"schema", string(h.schema),
			"features", len(h.artifact.Features),
		)
	})
	return h.err
}

// ProbabilityOfShedding implements domain.Classifier.
func (h *Handle) ProbabilityOfShedding(_ context.Context, fv domain.FeatureVector) (float64, error) {
	if err := h.Load(); err != nil {
		return 0, err
	}
	if len(fv.Names) > 0 && !slices.Equal(fv.Names, h.artifact.Features) {
		return 0, fmt.Errorf("%w: got %v, artifact expects %v", errShapeMismatch, fv.Names, h.artifact.Features)
	}
	return h.artifact.Probability(fv.Values)
}

func readArtifact(path string, schema domain.FeatureSchema) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read classifier artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("decode classifier artifact %s: %w", path, err)
	}
	if err := a.Validate(schema); err != nil {
		return Artifact{}, fmt.Errorf("invalid classifier artifact %s: %w", path, err)
	}
	return a, nil
}
