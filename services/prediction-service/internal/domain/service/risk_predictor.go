package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/port"
)

var (
	// ErrScaling marks a failure in the feature scaler.
	ErrScaling = errors.New("feature scaling failed")
	// ErrInference marks a failure in the model forward pass.
	ErrInference = errors.New("model inference failed")
)

// PredictionError reports which stage of the pipeline failed.
type PredictionError struct {
	Stage error
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%v: %v", e.Stage, e.Err)
}

// Unwrap exposes both the stage sentinel and the cause to errors.Is/As.
func (e *PredictionError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}

// Reason returns a short label for the failed stage.
func (e *PredictionError) Reason() string {
	if errors.Is(e.Stage, ErrScaling) {
		return "scaling"
	}
	return "inference"
}

// RiskPredictor scores feature samples: scale, forward pass, sigmoid,
// percent, class. It holds the loaded collaborators read-only, so one
// instance serves all requests.
type RiskPredictor struct {
	scaler port.FeatureScaler
	model  port.RiskModel
}

// NewRiskPredictor creates a RiskPredictor over loaded artifacts.
func NewRiskPredictor(scaler port.FeatureScaler, model port.RiskModel) *RiskPredictor {
	return &RiskPredictor{scaler: scaler, model: model}
}

// Predict scores samples and returns one result per sample in input order.
// An empty input returns an empty result without consulting the scaler or
// the model. Any failure fails the whole batch with a *PredictionError.
func (p *RiskPredictor) Predict(ctx context.Context, samples []model.FeatureSample) ([]model.RiskResult, error) {
	if len(samples) == 0 {
		return []model.RiskResult{}, nil
	}

	rows := make([]model.FeatureVector, len(samples))
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return nil, &PredictionError{Stage: ErrScaling, Err: fmt.Errorf("sample %d: %w", i, err)}
		}
		rows[i] = s.Vector()
	}

	scaled, err := p.scaler.Transform(rows)
	if err != nil {
		return nil, &PredictionError{Stage: ErrScaling, Err: err}
	}
	if len(scaled) != len(rows) {
		return nil, &PredictionError{
			Stage: ErrScaling,
			Err:   fmt.Errorf("scaler returned %d rows for %d samples", len(scaled), len(rows)),
		}
	}

	logits, err := p.model.Logits(ctx, scaled)
	if err != nil {
		return nil, &PredictionError{Stage: ErrInference, Err: err}
	}
	if len(logits) != len(rows) {
		return nil, &PredictionError{
			Stage: ErrInference,
			Err:   fmt.Errorf("model returned %d logits for %d samples", len(logits), len(rows)),
		}
	}

	results := make([]model.RiskResult, len(logits))
	for i, logit := range logits {
		if math.IsNaN(logit) {
			return nil, &PredictionError{Stage: ErrInference, Err: fmt.Errorf("logit %d is NaN", i)}
		}
		results[i] = model.NewRiskResult(Sigmoid(logit))
	}
	return results, nil
}

// Sigmoid maps a logit to a probability in (0,1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
