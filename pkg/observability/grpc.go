package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryServerMetrics returns an interceptor recording request counts and
// latencies per method and status code.
func UnaryServerMetrics(meter metric.Meter) (grpc.UnaryServerInterceptor, error) {
	requests, err := meter.Int64Counter("rpc_server_requests_total",
		metric.WithDescription("Unary RPCs handled, by method and status code."),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("rpc_server_duration_seconds",
		metric.WithDescription("Unary RPC handling latency."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := metric.WithAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.code", status.Code(err).String()),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)

		return resp, err
	}, nil
}
