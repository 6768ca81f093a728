package port

import (
	"context"

	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
)

// FeatureScaler applies the pre-fit normalization to raw feature rows.
// Implementations must be safe for concurrent use and must not mutate rows.
type FeatureScaler interface {
	Transform(rows []model.FeatureVector) ([]model.FeatureVector, error)
}

// RiskModel runs the trained network over scaled rows and returns one logit
// per row, in row order. Implementations must be safe for concurrent use.
type RiskModel interface {
	Logits(ctx context.Context, rows []model.FeatureVector) ([]float64, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
