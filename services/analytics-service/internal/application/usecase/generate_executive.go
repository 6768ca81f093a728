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
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/service"
)

// GenerateExecutive builds the pipeline-level report: overview map,
// statistics and narrative. It always produces a response.
type GenerateExecutive struct {
	renderer  port.MapRenderer
	engine    port.NarrativeEngine
	publisher port.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewGenerateExecutive creates a new GenerateExecutive use case.
func NewGenerateExecutive(
	renderer port.MapRenderer,
	engine port.NarrativeEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *GenerateExecutive {
	return &GenerateExecutive{
		renderer:  renderer,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute renders the map and writes the narrative concurrently.
func (uc *GenerateExecutive) Execute(ctx context.Context, req dto.ExecutiveRequest) dto.ExecutiveResponse {
	ctx, span := uc.tracer.Start(ctx, "GenerateExecutive", trace.WithAttributes(
		attribute.String("pipeline.name", req.PipelineName),
		attribute.Int("defects.count", len(req.Defects)),
	))
	defer span.End()

	markers := make([]model.DefectMarker, len(req.Defects))
	for i, d := range req.Defects {
		markers[i] = d.ToModel()
	}
	stats := service.ComputeStats(markers)

	var (
		mapPNG          []byte
		mapReason       string
		narrative       model.ExecutiveNarrative
		narrativeReason string
	)

	var g errgroup.Group
	g.Go(func() error {
		img, err := uc.renderer.RenderOverview(ctx, markers)
		mapPNG, mapReason = mapOutcome(ctx, uc.logger, img, err)
		return nil
	})
	g.Go(func() error {
		narrative, narrativeReason = uc.narrate(ctx, req.PipelineName, stats.Summary())
		return nil
	})
	_ = g.Wait()

	degraded := appendReason(appendReason(nil, mapReason), narrativeReason)
	if len(degraded) > 0 {
		span.SetAttributes(attribute.StringSlice("report.degraded", degraded))
	}

	publishBestEffort(ctx, uc.publisher, uc.logger, event.NewReportGenerated(
		req.RequestID, event.KindExecutive, req.PipelineName, stats.Total, len(mapPNG), degraded))

	return dto.ExecutiveResponse{
		KeyFindings:     narrative.Findings,
		Recommendations: narrative.Recommendations,
		MapImage:        mapPNG,
		Degraded:        degraded,
	}
}

func (uc *GenerateExecutive) narrate(ctx context.Context, pipelineName, summary string) (model.ExecutiveNarrative, string) {
	text, err := uc.engine.ExecutiveSummary(ctx, pipelineName, summary)
	if err != nil {
		uc.logger.WarnContext(ctx, "executive narrative unavailable, using fallback",
			slog.String("pipeline", pipelineName),
			slog.String("error", err.Error()),
		)
		return model.UnavailableNarrative(), ReasonNarrative
	}

	narrative, err := service.ParseExecutiveNarrative(text)
	if err != nil {
		uc.logger.WarnContext(ctx, "executive narrative unparseable, using fallback",
			slog.String("pipeline", pipelineName),
			slog.String("error", err.Error()),
		)
		return model.ParseFailureNarrative(), ReasonNarrativeParse
	}
	return narrative, ""
}
