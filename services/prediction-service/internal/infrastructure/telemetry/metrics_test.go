package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPrediction(ctx, "HIGH")
	m.RecordPrediction(ctx, "HIGH")
	m.RecordDegraded(ctx, "inference")
	m.RecordBatch(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names[metric.Name] = metric
	}
	require.Contains(t, names, "risk_predictions_total")
	require.Contains(t, names, "risk_degraded_responses_total")
	require.Contains(t, names, "risk_batch_size")

	sum, ok := names["risk_predictions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPrediction(context.Background(), "LOW")
		m.RecordDegraded(context.Background(), "scaling")
		m.RecordBatch(context.Background(), 1)
	})
}
