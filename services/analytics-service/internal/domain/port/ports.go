package port

import (
	"context"
	"errors"
	"fmt"

	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

var (
	// ErrNarrativeUnavailable marks a narrative engine call that failed.
	ErrNarrativeUnavailable = errors.New("narrative engine unavailable")
	// ErrRender marks a map that could not be produced at all.
	ErrRender = errors.New("map rendering failed")
)

// NarrativeError reports a failed narrative engine call.
type NarrativeError struct {
	Prompt string
	Err    error
}

func (e *NarrativeError) Error() string {
	return fmt.Sprintf("%s narrative: %v", e.Prompt, e.Err)
}

// Unwrap exposes ErrNarrativeUnavailable and the cause.
func (e *NarrativeError) Unwrap() []error {
	return []error{ErrNarrativeUnavailable, e.Err}
}

// RenderError reports a map that could not be encoded.
type RenderError struct {
	View string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s map: %v", e.View, e.Err)
}

// Unwrap exposes ErrRender and the cause.
func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

// MapRenderer draws the report maps. A missing basemap is not an error: the
// image is returned with BasemapMissing set.
type MapRenderer interface {
	// RenderOverview draws every marker over the pipeline route. Zero
	// markers yield a placeholder image.
	RenderOverview(ctx context.Context, markers []model.DefectMarker) (model.MapImage, error)
	// RenderDefect draws a zoomed view around one defect.
	RenderDefect(ctx context.Context, location model.GeoPoint, defectType string) (model.MapImage, error)
}

// NarrativeEngine writes report text with a generative language model.
// Failures are returned as *NarrativeError.
type NarrativeEngine interface {
	// ExecutiveSummary returns the raw JSON text of an executive narrative.
	ExecutiveSummary(ctx context.Context, pipelineName, statsSummary string) (string, error)
	// DefectAnalysis returns free text analysing one defect.
	DefectAnalysis(ctx context.Context, features model.DefectFeatures) (string, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
