package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/credentials"

	"github.com/rwrrioe/integrity/gateway/internal/config"
	"github.com/rwrrioe/integrity/gateway/internal/handler"
	"github.com/rwrrioe/integrity/gateway/internal/middleware"
	"github.com/rwrrioe/integrity/gateway/internal/proxy"
	"github.com/rwrrioe/integrity/pkg/auth"
	"github.com/rwrrioe/integrity/pkg/observability"
	"github.com/rwrrioe/integrity/pkg/tlsutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gateway",
		File:    cfg.LogFile,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting gateway",
		"port", cfg.HTTPPort,
		"risk_addr", cfg.RiskAddr,
		"analytics_addr", cfg.AnalyticsAddr,
	)

	jwtService, err := auth.NewValidator(cfg.JWT)
	if err != nil {
		logger.Error("failed to initialize JWT validator", "error", err)
		os.Exit(1)
	}
	if jwtService == nil {
		logger.Warn("JWT validation disabled, no key configured")
	}

	var creds credentials.TransportCredentials
	if cfg.BackendCAFile != "" || cfg.BackendServerName != "" {
		creds, err = tlsutil.ClientCredentials(cfg.BackendCAFile, cfg.BackendServerName)
		if err != nil {
			logger.Error("failed to load backend TLS credentials", "error", err)
			os.Exit(1)
		}
	}

	riskConn, err := proxy.Dial("prediction-service", cfg.RiskAddr,
		proxy.DialOptions{Timeout: cfg.RiskTimeout, Creds: creds}, logger)
	if err != nil {
		logger.Error("failed to dial backend", "service", "prediction-service", "error", err)
		os.Exit(1)
	}
	defer riskConn.Close()

	analyticsConn, err := proxy.Dial("analytics-service", cfg.AnalyticsAddr,
		proxy.DialOptions{Timeout: cfg.AnalyticsTimeout, Creds: creds}, logger)
	if err != nil {
		logger.Error("failed to dial backend", "service", "analytics-service", "error", err)
		os.Exit(1)
	}
	defer analyticsConn.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Proxies{
		Risk:      proxy.NewRiskProxy(riskConn, logger),
		Analytics: proxy.NewAnalyticsProxy(analyticsConn, logger),
	})

	// Applied in reverse: logging runs first, then rate limiting, then auth.
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtService, middleware.HealthPaths)(h)
	h = middleware.PerClientRateLimitMiddleware(
		middleware.NewPerClientRateLimiter(cfg.RateLimit, cfg.RateBurst), middleware.HealthPaths)(h)
	h = middleware.LoggingMiddleware(logger)(h)

	server := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("gateway stopped")
}
