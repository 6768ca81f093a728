package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/application/dto"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/event"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/service"
)

// DefectFallbackPrefix starts the analysis text returned when the narrative
// engine fails.
const DefectFallbackPrefix = "Report generation error: "

// GenerateDefect builds the single-defect report: zoomed map and free-text
// analysis. It always produces a response.
type GenerateDefect struct {
	renderer  port.MapRenderer
	engine    port.NarrativeEngine
	publisher port.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewGenerateDefect creates a new GenerateDefect use case.
func NewGenerateDefect(
	renderer port.MapRenderer,
	engine port.NarrativeEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *GenerateDefect {
	return &GenerateDefect{
		renderer:  renderer,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute renders the map and writes the analysis concurrently.
func (uc *GenerateDefect) Execute(ctx context.Context, req dto.DefectRequest) dto.DefectResponse {
	ctx, span := uc.tracer.Start(ctx, "GenerateDefect", trace.WithAttributes(
		attribute.String("defect.type", req.DefectType),
		attribute.String("defect.risk_level", req.RiskLevel),
	))
	defer span.End()

	defect := req.ToModel()
	features := service.DeriveDefectFeatures(defect)

	var (
		mapPNG         []byte
		mapReason      string
		analysis       string
		analysisReason string
	)

	var g errgroup.Group
	g.Go(func() error {
		img, err := uc.renderer.RenderDefect(ctx, defect.Location, defect.DefectType)
		mapPNG, mapReason = mapOutcome(ctx, uc.logger, img, err)
		return nil
	})
	g.Go(func() error {
		text, err := uc.engine.DefectAnalysis(ctx, features)
		if err != nil {
			uc.logger.WarnContext(ctx, "defect narrative unavailable, using fallback",
				slog.String("defect_type", req.DefectType),
				slog.String("error", err.Error()),
			)
			analysis, analysisReason = DefectFallbackPrefix+narrativeCause(err), ReasonNarrative
			return nil
		}
		analysis = text
		return nil
	})
	_ = g.Wait()

	degraded := appendReason(appendReason(nil, mapReason), analysisReason)
	if len(degraded) > 0 {
		span.SetAttributes(attribute.StringSlice("report.degraded", degraded))
	}

	publishBestEffort(ctx, uc.publisher, uc.logger, event.NewReportGenerated(
		req.RequestID, event.KindDefect, req.DefectType, 1, len(mapPNG), degraded))

	return dto.DefectResponse{
		LLMAnalysis: analysis,
		MapImage:    mapPNG,
		Degraded:    degraded,
	}
}
