package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
)

// Evaluator runs one assessment request through the risk engine.
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.AssessmentRequest) (domain.Evaluation, error)
}

// EvaluationTransformer implements Transformer by evaluating each request on
// the stream and serializing the resulting Evaluation.
type EvaluationTransformer struct {
	engine  Evaluator
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates an EvaluationTransformer.
func NewTransformer(engine Evaluator, metrics *observability.Metrics, logger *slog.Logger) *EvaluationTransformer {
	return &EvaluationTransformer{engine: engine, metrics: metrics, logger: logger}
}

func (t *EvaluationTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseAssessmentRequest(raw)
	if err != nil {
		t.metrics.RecordFailure(observability.SourceStream, err)
		return domain.OutputEvent{}, err
	}

	ev, err := t.engine.Evaluate(ctx, req)
	if err != nil {
		t.metrics.RecordFailure(observability.SourceStream, err)
		if isWeatherFailure(err) {
			// Weather failures go to the sink so the requester knows to re-request.
			t.logger.Warn("stream evaluation failed, publishing failure record", "id", req.ID, "city", req.City, "error", err)
			return domain.SerializeFailure(req, observability.FailureReason(err), err)
		}
		return domain.OutputEvent{}, err
	}
	t.metrics.RecordEvaluation(observability.SourceStream, ev)

	if ev.Assessment.ClassifierUnavailable {
		t.logger.Warn("stream evaluation degraded to heuristic", "id", ev.ID, "error", ev.Assessment.ClassifierError)
	}
	return domain.SerializeEvaluation(ev)
}

func isWeatherFailure(err error) bool {
	return errors.Is(err, domain.ErrWeatherFetchFailed) || errors.Is(err, domain.ErrWeatherNotConfigured)
}
