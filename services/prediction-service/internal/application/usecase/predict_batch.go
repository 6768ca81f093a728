package usecase

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/application/dto"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/event"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/service"
)

const tracerName = "github.com/rwrrioe/integrity/services/prediction-service/usecase"

// PredictBatch is the use case for scoring a batch of readings.
type PredictBatch struct {
	predictor *service.RiskPredictor
	publisher port.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewPredictBatch creates a new PredictBatch use case.
func NewPredictBatch(
	predictor *service.RiskPredictor,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *PredictBatch {
	return &PredictBatch{
		predictor: predictor,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute scores every input and returns outputs in input order. Scoring
// errors are returned as *service.PredictionError; callers decide the
// fallback.
func (uc *PredictBatch) Execute(ctx context.Context, req dto.BatchRequest) (dto.BatchResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "PredictBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(req.Inputs))))
	defer span.End()

	if len(req.Inputs) == 0 {
		return dto.BatchResponse{Outputs: []dto.RiskOutput{}}, nil
	}

	samples := make([]model.FeatureSample, len(req.Inputs))
	for i, in := range req.Inputs {
		samples[i] = in.ToSample()
	}

	results, err := uc.predictor.Predict(ctx, samples)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")

		reason := "inference"
		var predErr *service.PredictionError
		if errors.As(err, &predErr) {
			reason = predErr.Reason()
		}
		uc.publish(ctx, event.NewRiskBatchFailed(req.RequestID, len(samples), reason))
		return dto.BatchResponse{}, err
	}

	outputs := make([]dto.RiskOutput, len(results))
	for i, r := range results {
		outputs[i] = dto.FromResult(r)
	}

	uc.publish(ctx, event.NewRiskBatchScored(req.RequestID, results))
	return dto.BatchResponse{Outputs: outputs}, nil
}

// publish is best effort: a broker outage never changes the response.
func (uc *PredictBatch) publish(ctx context.Context, evt events.DomainEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish prediction event",
			slog.String("event_type", evt.EventType()),
			slog.String("error", err.Error()),
		)
	}
}
