package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseAssessmentRequest deserializes a RawEvent's value into an
// AssessmentRequest. A message key is used as the request ID when the payload
// carries none.
func ParseAssessmentRequest(raw RawEvent) (AssessmentRequest, error) {
	var req AssessmentRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AssessmentRequest{}, fmt.Errorf("parse assessment request: %w", err)
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// SerializeEvaluation marshals an Evaluation into an OutputEvent keyed by its ID.
func SerializeEvaluation(ev Evaluation) (OutputEvent, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize evaluation: %w", err)
	}
	return OutputEvent{
		Key:   []byte(ev.ID),
		Value: data,
		Headers: map[string]string{
			"combined_risk": string(ev.Assessment.CombinedRisk),
			"assessed_at":   ev.AssessedAt.Format(time.RFC3339),
		},
	}, nil
}

// SerializeFailure marshals a failed request into an OutputEvent keyed by the
// request ID. The error header carries code so consumers can route on it.
func SerializeFailure(req AssessmentRequest, code string, cause error) (OutputEvent, error) {
	f := AssessmentFailure{
		ID:       req.ID,
		City:     req.City,
		Code:     code,
		Message:  cause.Error(),
		FailedAt: clock.Now().UTC(),
	}
	data, err := json.Marshal(f)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize failure: %w", err)
	}
	return OutputEvent{
		Key:   []byte(f.ID),
		Value: data,
		Headers: map[string]string{
			"error":     code,
			"failed_at": f.FailedAt.Format(time.RFC3339),
		},
	}, nil
}
