// Package telemetry records analytics metrics through the OpenTelemetry
// metric API.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the report instruments. A nil *Metrics records nothing.
type Metrics struct {
	reports  metric.Int64Counter
	degraded metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	reports, err := meter.Int64Counter("analytics_reports_total",
		metric.WithDescription("Reports served by kind."))
	if err != nil {
		return nil, fmt.Errorf("create reports counter: %w", err)
	}

	degraded, err := meter.Int64Counter("analytics_degraded_responses_total",
		metric.WithDescription("Reports served with fallback content, by reason."))
	if err != nil {
		return nil, fmt.Errorf("create degraded counter: %w", err)
	}

	duration, err := meter.Float64Histogram("analytics_report_duration_seconds",
		metric.WithDescription("Time to assemble a report."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Metrics{reports: reports, degraded: degraded, duration: duration}, nil
}

// RecordReport counts one served report and its latency.
func (m *Metrics) RecordReport(ctx context.Context, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.reports.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordDegraded counts one fallback reason of a report.
func (m *Metrics) RecordDegraded(ctx context.Context, kind, reason string) {
	if m == nil {
		return
	}
	m.degraded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}
