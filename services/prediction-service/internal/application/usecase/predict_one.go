package usecase

import (
	"context"
	"fmt"

	"github.com/rwrrioe/integrity/services/prediction-service/internal/application/dto"
)

// PredictOne scores a single reading through the batch pipeline, so a
// single prediction always equals the first element of a one-item batch.
type PredictOne struct {
	batch *PredictBatch
}

// NewPredictOne creates a new PredictOne use case.
func NewPredictOne(batch *PredictBatch) *PredictOne {
	return &PredictOne{batch: batch}
}

// Execute scores in.
func (uc *PredictOne) Execute(ctx context.Context, requestID string, in dto.RiskInput) (dto.RiskOutput, error) {
	resp, err := uc.batch.Execute(ctx, dto.BatchRequest{
		RequestID: requestID,
		Inputs:    []dto.RiskInput{in},
	})
	if err != nil {
		return dto.RiskOutput{}, err
	}
	if len(resp.Outputs) != 1 {
		return dto.RiskOutput{}, fmt.Errorf("expected 1 output, got %d", len(resp.Outputs))
	}
	return resp.Outputs[0], nil
}
