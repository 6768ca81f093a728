package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rwrrioe/integrity/pkg/auth"
	"github.com/rwrrioe/integrity/pkg/observability"
	"github.com/rwrrioe/integrity/pkg/rpc"
	"github.com/rwrrioe/integrity/pkg/tlsutil"
)

// ServerOptions configures the gRPC server around the handler.
type ServerOptions struct {
	Address    string
	Workers    int
	Reflection bool
	TLS        tlsutil.Files
	// JWT enables bearer-token auth when non-nil.
	JWT *auth.JWTService
	// Meter enables RPC metrics when non-nil.
	Meter metric.Meter
}

// Server wraps the gRPC server with analytics service handlers.
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer creates a new gRPC server for the analytics service. The
// interceptor chain is metrics, auth, role check, worker bound.
func NewServer(handler *AnalyticsServiceHandler, opts ServerOptions, logger *slog.Logger) (*Server, error) {
	var interceptors []grpc.UnaryServerInterceptor

	if opts.Meter != nil {
		metrics, err := observability.UnaryServerMetrics(opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("rpc metrics: %w", err)
		}
		interceptors = append(interceptors, metrics)
	}

	if opts.JWT != nil {
		interceptors = append(interceptors,
			auth.UnaryAuthInterceptor(opts.JWT, auth.HealthMethods),
			auth.RequireRole(auth.HealthMethods, auth.RoleAdmin, auth.RoleEngineer, auth.RoleService),
		)
		logger.Info("gRPC JWT auth enabled")
	} else {
		logger.Warn("gRPC JWT auth not configured, accepting unauthenticated calls")
	}

	pool := rpc.NewWorkerPool(opts.Workers)
	interceptors = append(interceptors, pool.UnaryInterceptor())

	serverOpts := append(pool.ServerOptions(), grpc.ChainUnaryInterceptor(interceptors...))

	if opts.TLS.Enabled() {
		creds, err := tlsutil.ServerCredentials(opts.TLS)
		if err != nil {
			return nil, err
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", opts.TLS.CertFile, "mtls", opts.TLS.CAFile != "")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	RegisterAnalyticsServiceServer(grpcServer, handler)

	if opts.Reflection {
		reflection.Register(grpcServer)
	}

	logger.Info("gRPC worker pool configured", "workers", pool.Size())

	return &Server{
		address:    opts.Address,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}, nil
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting",
		slog.String("address", listener.Addr().String()),
	)
	return s.grpcServer.Serve(listener)
}

// Stop marks the service as not serving and gracefully stops the server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
