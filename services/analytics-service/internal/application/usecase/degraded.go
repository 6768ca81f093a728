package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
)

// Reasons a report carries fallback content.
const (
	ReasonMap            = "map"
	ReasonBasemap        = "basemap"
	ReasonNarrative      = "narrative"
	ReasonNarrativeParse = "narrative_parse"
)

const tracerName = "github.com/rwrrioe/integrity/services/analytics-service/usecase"

// mapOutcome converts a renderer result into image bytes plus the degraded
// reason, if any.
func mapOutcome(ctx context.Context, logger *slog.Logger, img model.MapImage, err error) ([]byte, string) {
	if err != nil {
		logger.WarnContext(ctx, "map rendering failed, returning report without map",
			slog.String("error", err.Error()))
		return nil, ReasonMap
	}
	if img.BasemapMissing {
		return img.PNG, ReasonBasemap
	}
	return img.PNG, ""
}

// narrativeCause returns the engine's own error text without the wrapper.
func narrativeCause(err error) string {
	var ne *port.NarrativeError
	if errors.As(err, &ne) && ne.Err != nil {
		return ne.Err.Error()
	}
	return err.Error()
}

func appendReason(reasons []string, reason string) []string {
	if reason == "" {
		return reasons
	}
	return append(reasons, reason)
}

func publishBestEffort(ctx context.Context, publisher port.EventPublisher, logger *slog.Logger, evt events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish analytics event",
			slog.String("event_type", evt.EventType()),
			slog.String("error", err.Error()),
		)
	}
}
