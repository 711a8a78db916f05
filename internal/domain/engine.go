package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// WeatherProvider fetches current conditions for a city. Implementations hold
// their own credential and return ErrWeatherNotConfigured when it is missing.
type WeatherProvider interface {
	Fetch(ctx context.Context, city string) (WeatherReading, error)
}

// EngineConfig wires the engine's strategies and collaborators.
type EngineConfig struct {
	IceModel    IceModel
	Classifier  Classifier
	Schema      FeatureSchema
	Policy      CombinePolicy
	WindDamping bool

	// Weather is optional; without it AssessCity reports ErrWeatherNotConfigured.
	Weather        WeatherProvider
	WeatherTimeout time.Duration

	Logger *slog.Logger
}

// Engine turns readings and conductor geometry into risk assessments. It holds
// no per-evaluation state and is safe for concurrent use as long as its
// classifier is.
type Engine struct {
	ice         IceModel
	classifier  Classifier
	schema      FeatureSchema
	policy      CombinePolicy
	windDamping bool

	weather        WeatherProvider
	weatherTimeout time.Duration

	logger *slog.Logger
}

// NewEngine creates an Engine. Unset fields fall back to the empirical ice
// model, the manual feature schema and the max combination policy.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		ice:            cfg.IceModel,
		classifier:     cfg.Classifier,
		schema:         cfg.Schema,
		policy:         cfg.Policy,
		windDamping:    cfg.WindDamping,
		weather:        cfg.Weather,
		weatherTimeout: cfg.WeatherTimeout,
		logger:         cfg.Logger,
	}
	if e.ice == nil {
		e.ice = NewEmpiricalModel()
	}
	if e.schema == "" {
		e.schema = SchemaManual
	}
	if e.policy == "" {
		e.policy = PolicyMax
	}
	if e.weatherTimeout <= 0 {
		e.weatherTimeout = 5 * time.Second
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Assess runs one evaluation. Invalid input is rejected before any model
// runs; a classifier failure is flagged on the assessment, not returned.
func (e *Engine) Assess(ctx context.Context, r WeatherReading, g ConductorGeometry) (Evaluation, error) {
	if err := g.Validate(); err != nil {
		return Evaluation{}, err
	}
	if err := r.Validate(); err != nil {
		return Evaluation{}, err
	}

	ice := e.ice.Estimate(r)

	heuristicProb := SheddingHeuristic(r.TempChange6hC, r.PrecipitationMM, r.WindSpeedMS)
	heuristic := HeuristicResult{Probability: heuristicProb, Risk: ProbabilityRisk(heuristicProb)}

	var bounce float64
	if e.windDamping {
		bounce = DampedBounceAmplitude(ice.ThicknessMM, g.WireDiameterMM, g.SpanLengthM, r.WindSpeedMS)
	} else {
		bounce = BounceAmplitude(ice.ThicknessMM, g.WireDiameterMM, g.SpanLengthM)
	}
	if !finite(ice.ThicknessMM) || !finite(bounce) || !finite(heuristicProb) {
		return Evaluation{}, fmt.Errorf("%w: inputs out of range, model output is not finite", ErrInvalidInput)
	}
	bounceRisk := BounceRisk(bounce)

	cls := PredictShedding(ctx, e.classifier, BuildFeatures(e.schema, r, ice, g))

	assessment := RiskAssessment{
		SheddingProbability: cls.Probability,
		BounceAmplitudeM:    bounce,
		ClassifierRisk:      cls.Risk,
		BounceRisk:          bounceRisk,
	}

	var shedding RiskLabel
	switch {
	case cls.Unavailable:
		e.logger.Warn("classifier unavailable, using heuristic for shedding risk",
			"error", cls.Err,
			"heuristic_probability", heuristicProb,
		)
		assessment.ClassifierUnavailable = true
		assessment.ClassifierError = cls.Err.Error()
		shedding = heuristic.Risk
	case e.policy == PolicyAverage:
		shedding = AveragedRisk(cls.Probability, heuristicProb)
	default:
		shedding = cls.Risk
	}
	assessment.CombinedRisk = Combine(shedding, bounceRisk)

	return Evaluation{
		ID:         uuid.NewString(),
		Reading:    r,
		Geometry:   g,
		Ice:        ice,
		Heuristic:  heuristic,
		Assessment: assessment,
		Policy:     e.policy,
		AssessedAt: clock.Now().UTC(),
	}, nil
}

// AssessCity fetches the current reading for city and evaluates it. A failed
// fetch skips the evaluation; no earlier reading is reused.
func (e *Engine) AssessCity(ctx context.Context, city string, g ConductorGeometry) (Evaluation, error) {
	if err := g.Validate(); err != nil {
		return Evaluation{}, err
	}
	if e.weather == nil {
		return Evaluation{}, ErrWeatherNotConfigured
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.weatherTimeout)
	defer cancel()

	r, err := e.weather.Fetch(fetchCtx, city)
	if err != nil {
		if errors.Is(err, ErrWeatherNotConfigured) || errors.Is(err, ErrWeatherFetchFailed) {
			return Evaluation{}, err
		}
		return Evaluation{}, fmt.Errorf("%w: %w", ErrWeatherFetchFailed, err)
	}

	ev, err := e.Assess(ctx, r, g)
	if err != nil {
		return Evaluation{}, err
	}
	ev.City = city
	return ev, nil
}

// Evaluate dispatches a stream request to Assess or AssessCity and keeps the
// caller's ID when one is supplied.
func (e *Engine) Evaluate(ctx context.Context, req AssessmentRequest) (Evaluation, error) {
	var (
		ev  Evaluation
		err error
	)
	switch {
	case req.Reading != nil:
		ev, err = e.Assess(ctx, *req.Reading, req.Geometry)
		ev.City = req.City
	case req.City != "":
		ev, err = e.AssessCity(ctx, req.City, req.Geometry)
	default:
		return Evaluation{}, fmt.Errorf("%w: request needs a reading or a city", ErrInvalidInput)
	}
	if err != nil {
		return Evaluation{}, err
	}
	if req.ID != "" {
		ev.ID = req.ID
	}
	return ev, nil
}

// IceModel reports the configured ice model name.
func (e *Engine) IceModel() string { return e.ice.Name() }

// CheckReadiness reports whether the classifier can serve. Evaluations still
// complete without it, degraded to the heuristic.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if e.classifier == nil {
		return fmt.Errorf("%w: no classifier configured", ErrClassifierUnavailable)
	}
	if l, ok := e.classifier.(interface{ Load() error }); ok {
		if err := l.Load(); err != nil {
			return fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
		}
	}
	return nil
}
