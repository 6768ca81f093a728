package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rwrrioe/integrity/pkg/auth"
	pkgkafka "github.com/rwrrioe/integrity/pkg/kafka"
	"github.com/rwrrioe/integrity/pkg/observability"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/application/usecase"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/config"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/kafka"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/llm"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/maprender"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/telemetry"
	grpcpresentation "github.com/rwrrioe/integrity/services/analytics-service/internal/presentation/grpc"
)

const serviceName = "analytics-service"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  "json",
		Service: "analytics-service",
		File:    cfg.LogFile,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting analytics-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"workers", cfg.Workers,
		"model", cfg.GeminiModel,
	)

	// Initialize tracing.
	if cfg.OTelEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTelEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer meterProvider.Shutdown(context.Background())
	meter := meterProvider.Meter(serviceName)

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create analytics metrics", "error", err)
		os.Exit(1)
	}

	// Map renderer.
	style, err := maprender.LoadStyle(cfg.MapStyleFile)
	if err != nil {
		logger.Error("failed to load map style", "path", cfg.MapStyleFile, "error", err)
		os.Exit(1)
	}
	renderer, err := maprender.NewRenderer(style, &http.Client{Timeout: style.TileTimeout}, logger)
	if err != nil {
		logger.Error("failed to create map renderer", "error", err)
		os.Exit(1)
	}
	if style.TileURL == "" {
		logger.Info("basemap tiles disabled")
	} else {
		logger.Info("basemap tiles enabled", "url", style.TileURL, "cache_size", style.CacheSize)
	}

	// Narrative engine.
	engine, err := llm.NewEngine(ctx, llm.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.LLMTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create narrative engine", "error", err)
		os.Exit(1)
	}

	// Wire infrastructure adapters.
	var publisher port.EventPublisher = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		producer, err := pkgkafka.NewProducer(cfg.Kafka)
		if err != nil {
			logger.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = kafka.NewPublisher(producer, cfg.KafkaTopic, logger)
		logger.Info("kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka not configured, report events disabled")
	}

	jwtService, err := auth.NewValidator(cfg.JWT)
	if err != nil {
		logger.Error("failed to configure JWT validation", "error", err)
		os.Exit(1)
	}

	// Wire use cases.
	executiveUC := usecase.NewGenerateExecutive(renderer, engine, publisher, logger)
	defectUC := usecase.NewGenerateDefect(renderer, engine, publisher, logger)

	// gRPC server.
	grpcHandler := grpcpresentation.NewAnalyticsServiceHandler(executiveUC, defectUC, metrics, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerOptions{
		Address:    cfg.GRPCAddress(),
		Workers:    cfg.Workers,
		Reflection: cfg.Reflection,
		TLS:        cfg.TLS,
		JWT:        jwtService,
		Meter:      meter,
	}, logger)
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server (health checks and metrics).
	healthHandler := observability.NewHealthHandler("analytics-service", logger, map[string]observability.ReadinessCheck{
		"narrative_engine": engine.Ready,
	}, metricsHandler)
	httpMux := http.NewServeMux()
	healthHandler.RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("analytics-service started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down analytics-service")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("analytics-service stopped")
}
