// Package telemetry records prediction metrics through the OpenTelemetry
// metric API.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the prediction instruments. A nil *Metrics records nothing.
type Metrics struct {
	predictions metric.Int64Counter
	degraded    metric.Int64Counter
	batchSize   metric.Int64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	predictions, err := meter.Int64Counter("risk_predictions_total",
		metric.WithDescription("Scored samples by risk class."))
	if err != nil {
		return nil, fmt.Errorf("create predictions counter: %w", err)
	}

	degraded, err := meter.Int64Counter("risk_degraded_responses_total",
		metric.WithDescription("Responses that carried the fallback result."))
	if err != nil {
		return nil, fmt.Errorf("create degraded counter: %w", err)
	}

	batchSize, err := meter.Int64Histogram("risk_batch_size",
		metric.WithDescription("Samples per prediction request."),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 50, 100, 500, 1000))
	if err != nil {
		return nil, fmt.Errorf("create batch size histogram: %w", err)
	}

	return &Metrics{predictions: predictions, degraded: degraded, batchSize: batchSize}, nil
}

// RecordPrediction counts one scored sample.
func (m *Metrics) RecordPrediction(ctx context.Context, class string) {
	if m == nil {
		return
	}
	m.predictions.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_class", class)))
}

// RecordDegraded counts one fallback response.
func (m *Metrics) RecordDegraded(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordBatch observes a request's size.
func (m *Metrics) RecordBatch(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.batchSize.Record(ctx, int64(size))
}
