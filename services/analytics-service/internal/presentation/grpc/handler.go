package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rwrrioe/integrity/pkg/rpc"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/application/dto"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/application/usecase"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/event"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/telemetry"
)

// Compile-time assertion that AnalyticsServiceHandler implements AnalyticsServiceServer.
var _ AnalyticsServiceServer = (*AnalyticsServiceHandler)(nil)

// AnalyticsServiceHandler implements the gRPC AnalyticsServiceServer
// interface. Reports are always answered with status OK; fallback content is
// flagged through the degraded trailer.
type AnalyticsServiceHandler struct {
	UnimplementedAnalyticsServiceServer
	executive *usecase.GenerateExecutive
	defect    *usecase.GenerateDefect
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewAnalyticsServiceHandler creates a new gRPC handler. metrics may be nil.
func NewAnalyticsServiceHandler(
	executive *usecase.GenerateExecutive,
	defect *usecase.GenerateDefect,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *AnalyticsServiceHandler {
	return &AnalyticsServiceHandler{
		executive: executive,
		defect:    defect,
		metrics:   metrics,
		logger:    logger,
	}
}

// GenerateExecutiveAnalytics builds the pipeline-level report.
func (h *AnalyticsServiceHandler) GenerateExecutiveAnalytics(ctx context.Context, req *ExecutiveRequest) (*ExecutiveResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start := time.Now()
	requestID := requestIDFromContext(ctx)

	defects := make([]dto.DefectMarkerInput, 0, len(req.Defects))
	for i, d := range req.Defects {
		if d == nil {
			return nil, status.Errorf(codes.InvalidArgument, "defects[%d] is null", i)
		}
		defects = append(defects, dto.DefectMarkerInput{Type: d.Type, Severity: d.Severity, Lat: d.Lat, Lon: d.Lon})
	}

	out := h.executive.Execute(ctx, dto.ExecutiveRequest{
		RequestID:    requestID,
		PipelineName: req.PipelineName,
		Defects:      defects,
	})
	h.finish(ctx, event.KindExecutive, requestID, start, out.Degraded,
		slog.String("pipeline", req.PipelineName),
		slog.Int("defects", len(defects)),
	)

	recs := make([]*Recommendation, len(out.Recommendations))
	for i, r := range out.Recommendations {
		recs[i] = &Recommendation{Priority: r.Priority, Title: r.Title, Description: r.Description}
	}
	return &ExecutiveResponse{
		KeyFindings:     out.KeyFindings,
		Recommendations: recs,
		MapImage:        out.MapImage,
	}, nil
}

// GenerateDefectAnalytics builds the single-defect report.
func (h *AnalyticsServiceHandler) GenerateDefectAnalytics(ctx context.Context, req *DefectRequest) (*DefectResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start := time.Now()
	requestID := requestIDFromContext(ctx)

	out := h.defect.Execute(ctx, dto.DefectRequest{
		RequestID:  requestID,
		Lat:        req.Lat,
		Lon:        req.Lon,
		DefectType: req.DefectType,
		Depth:      req.Depth,
		Pressure:   req.Pressure,
		Diameter:   req.Diameter,
		Age:        req.Age,
		Vibration:  req.Vibration,
		RiskLevel:  req.RiskLevel,
	})
	h.finish(ctx, event.KindDefect, requestID, start, out.Degraded,
		slog.String("defect_type", req.DefectType),
		slog.String("risk_level", req.RiskLevel),
	)

	return &DefectResponse{LLMAnalysis: out.LLMAnalysis, MapImage: out.MapImage}, nil
}

func (h *AnalyticsServiceHandler) finish(ctx context.Context, kind, requestID string, start time.Time, degraded []string, attrs ...any) {
	elapsed := time.Since(start)
	h.metrics.RecordReport(ctx, kind, elapsed)
	for _, reason := range degraded {
		h.metrics.RecordDegraded(ctx, kind, reason)
	}
	rpc.MarkDegraded(ctx, degraded...)

	attrs = append(attrs,
		slog.String("method", kind),
		slog.String("request_id", requestID),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	if len(degraded) > 0 {
		h.logger.WarnContext(ctx, "report served with fallback content", append(attrs, slog.Any("degraded", degraded))...)
		return
	}
	h.logger.InfoContext(ctx, "report served", attrs...)
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
