// Package proxy provides HTTP-to-gRPC proxy clients for the backend
// services.
//
// Each service client holds a gRPC connection and exposes HTTP handler
// functions that translate JSON requests into gRPC calls and return JSON
// responses. Calls use the JSON codec from pkg/rpc, so no generated stubs
// are required.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rwrrioe/integrity/pkg/rpc"
)

// DegradedHeader surfaces the backend's degraded trailer to HTTP callers.
const DegradedHeader = "X-Integrity-Degraded"

// RequestIDHeader is propagated to the backends as x-request-id.
const RequestIDHeader = "X-Request-ID"

// ServiceConn represents a gRPC client connection to a backend service.
type ServiceConn struct {
	Name    string
	Addr    string
	Conn    *grpc.ClientConn
	Health  healthpb.HealthClient
	Logger  *slog.Logger
	Timeout time.Duration
}

// DialOptions configures a backend connection.
type DialOptions struct {
	// Timeout bounds every call; zero leaves calls to the request context.
	Timeout time.Duration
	// Creds secures the connection; nil dials without TLS.
	Creds credentials.TransportCredentials
	// Extra is appended to the dial options, e.g. a test dialer.
	Extra []grpc.DialOption
}

// Dial establishes a gRPC connection to the backend service. Connections are
// lazy, so an unreachable backend does not fail here.
func Dial(name, addr string, opts DialOptions, logger *slog.Logger) (*ServiceConn, error) {
	creds := opts.Creds
	if creds == nil {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts.Extra...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s at %s: %w", name, addr, err)
	}

	logger.Info("connected to backend service", "service", name, "addr", addr)

	return &ServiceConn{
		Name:    name,
		Addr:    addr,
		Conn:    conn,
		Health:  healthpb.NewHealthClient(conn),
		Logger:  logger,
		Timeout: opts.Timeout,
	}, nil
}

// Close closes the underlying gRPC connection.
func (sc *ServiceConn) Close() error {
	if sc == nil || sc.Conn == nil {
		return nil
	}
	return sc.Conn.Close()
}

// Invoke calls a gRPC method on the backend with the JSON codec, forwarding
// the caller's bearer token and request ID. It returns the degraded reason
// the backend reported, if any.
func (sc *ServiceConn) Invoke(r *http.Request, method string, req, resp interface{}) (string, error) {
	if sc == nil || sc.Conn == nil {
		return "", status.Error(codes.Unavailable, "backend service not connected")
	}

	ctx := outgoingContext(r)
	if sc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.Timeout)
		defer cancel()
	}

	var trailer metadata.MD
	if err := sc.Conn.Invoke(ctx, method, req, resp, rpc.CallOption(), grpc.Trailer(&trailer)); err != nil {
		return "", err
	}
	return rpc.DegradedReason(trailer), nil
}

// CheckHealth queries the gRPC health check endpoint of the backend service.
func (sc *ServiceConn) CheckHealth(ctx context.Context, service string) error {
	if sc == nil || sc.Health == nil {
		return errors.New("backend service not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := sc.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check %s: %w", sc.Name, err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %s not serving: %s", sc.Name, resp.Status)
	}
	return nil
}

func outgoingContext(r *http.Request) context.Context {
	var pairs []string
	if authz := r.Header.Get("Authorization"); authz != "" {
		pairs = append(pairs, "authorization", authz)
	}
	if id := r.Header.Get(RequestIDHeader); id != "" {
		pairs = append(pairs, "x-request-id", id)
	}
	if len(pairs) == 0 {
		return r.Context()
	}
	return metadata.AppendToOutgoingContext(r.Context(), pairs...)
}

// readJSON reads and unmarshals a JSON request body into the provided value.
func readJSON(r *http.Request, limit int64, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return fmt.Errorf("request body exceeds %d bytes", limit)
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// writeJSON marshals the value as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]string{"error": msg})
}

// markDegraded copies a non-empty degraded reason onto the response.
func markDegraded(w http.ResponseWriter, reason string) {
	if reason != "" {
		w.Header().Set(DegradedHeader, reason)
	}
}

// grpcToHTTPStatus maps a gRPC status code to an HTTP status code.
func grpcToHTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded, codes.Canceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleGRPCError writes an appropriate HTTP error response for a gRPC error.
func handleGRPCError(w http.ResponseWriter, err error, logger *slog.Logger) {
	st, ok := status.FromError(err)
	if !ok {
		logger.Error("backend call failed", "error", err)
		writeError(w, http.StatusBadGateway, "backend service unavailable")
		return
	}
	httpStatus := grpcToHTTPStatus(st.Code())
	logger.Error("backend gRPC error",
		"code", st.Code().String(),
		"message", st.Message(),
		"http_status", httpStatus,
	)
	writeError(w, httpStatus, st.Message())
}
