package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rwrrioe/integrity/pkg/rpc"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/application/dto"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/application/usecase"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/service"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/infrastructure/telemetry"
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface. It is
// the one place where prediction errors become responses: a failed batch
// answers with no responses and a failed single prediction answers with the
// ERROR sentinel, both with status OK and the degraded trailer set.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	predictOne   *usecase.PredictOne
	predictBatch *usecase.PredictBatch
	metrics      *telemetry.Metrics
	logger       *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler. metrics may be nil.
func NewRiskServiceHandler(
	predictOne *usecase.PredictOne,
	predictBatch *usecase.PredictBatch,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		predictOne:   predictOne,
		predictBatch: predictBatch,
		metrics:      metrics,
		logger:       logger,
	}
}

// PredictOne scores a single reading.
func (h *RiskServiceHandler) PredictOne(ctx context.Context, req *RiskRequest) (*RiskResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start := time.Now()
	requestID := requestIDFromContext(ctx)

	out, err := h.predictOne.Execute(ctx, requestID, req.toInput())
	if err != nil {
		h.degrade(ctx, "PredictOne", requestID, 1, err)
		sentinel := model.ErrorResult()
		return &RiskResponse{
			RiskPercent: sentinel.Percent(),
			RiskClass:   sentinel.Class().String(),
		}, nil
	}

	h.metrics.RecordBatch(ctx, 1)
	h.metrics.RecordPrediction(ctx, out.RiskClass)

	h.logger.DebugContext(ctx, "prediction served",
		slog.String("method", "PredictOne"),
		slog.String("request_id", requestID),
		slog.Float64("risk_percent", out.RiskPercent),
		slog.String("risk_class", out.RiskClass),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &RiskResponse{RiskPercent: out.RiskPercent, RiskClass: out.RiskClass}, nil
}

// PredictBatch scores many readings in one pass.
func (h *RiskServiceHandler) PredictBatch(ctx context.Context, req *RiskBatchRequest) (*RiskBatchResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start := time.Now()
	requestID := requestIDFromContext(ctx)

	inputs := make([]dto.RiskInput, 0, len(req.Requests))
	for i, r := range req.Requests {
		if r == nil {
			return nil, status.Errorf(codes.InvalidArgument, "requests[%d] is null", i)
		}
		inputs = append(inputs, r.toInput())
	}

	h.metrics.RecordBatch(ctx, len(inputs))

	resp, err := h.predictBatch.Execute(ctx, dto.BatchRequest{RequestID: requestID, Inputs: inputs})
	if err != nil {
		h.degrade(ctx, "PredictBatch", requestID, len(inputs), err)
		return &RiskBatchResponse{Responses: []*RiskResponse{}}, nil
	}

	responses := make([]*RiskResponse, len(resp.Outputs))
	for i, out := range resp.Outputs {
		h.metrics.RecordPrediction(ctx, out.RiskClass)
		responses[i] = &RiskResponse{RiskPercent: out.RiskPercent, RiskClass: out.RiskClass}
	}

	h.logger.InfoContext(ctx, "batch prediction served",
		slog.String("method", "PredictBatch"),
		slog.String("request_id", requestID),
		slog.Int("batch_size", len(inputs)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &RiskBatchResponse{Responses: responses}, nil
}

func (h *RiskServiceHandler) degrade(ctx context.Context, method, requestID string, batchSize int, err error) {
	reason := "inference"
	var predErr *service.PredictionError
	if errors.As(err, &predErr) {
		reason = predErr.Reason()
	}

	h.logger.ErrorContext(ctx, "prediction failed, returning fallback",
		slog.String("method", method),
		slog.String("request_id", requestID),
		slog.Int("batch_size", batchSize),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	h.metrics.RecordDegraded(ctx, reason)
	rpc.MarkDegraded(ctx, reason)
}

func (r *RiskRequest) toInput() dto.RiskInput {
	return dto.RiskInput{
		Depth:         r.Depth,
		Length:        r.Length,
		DefectType:    r.DefectType,
		Pressure:      r.Pressure,
		Diameter:      r.Diameter,
		Age:           r.Age,
		RMSVibration:  r.RMSVibration,
		PeakVibration: r.PeakVibration,
		AnomalyScore:  r.AnomalyScore,
	}
}

// requestIDFromContext returns the caller's x-request-id or a fresh UUID.
func requestIDFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}
