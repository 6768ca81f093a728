package rpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// DegradedTrailer names the trailer carrying the reason a response holds
// fallback content instead of a computed result.
const DegradedTrailer = "x-integrity-degraded"

// MarkDegraded attaches the degraded trailer to the current server call. It
// is a no-op outside a gRPC server context.
func MarkDegraded(ctx context.Context, reasons ...string) {
	if len(reasons) == 0 {
		return
	}
	_ = grpc.SetTrailer(ctx, metadata.Pairs(DegradedTrailer, strings.Join(reasons, ",")))
}

// DegradedReason reads the degraded trailer from client-side trailer metadata.
func DegradedReason(trailer metadata.MD) string {
	values := trailer.Get(DegradedTrailer)
	if len(values) == 0 {
		return ""
	}
	return strings.Join(values, ",")
}
