package observability

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func() error

// HealthHandler serves the liveness, readiness and metrics endpoints of a
// service's HTTP port.
type HealthHandler struct {
	service string
	logger  *slog.Logger
	started time.Time
	names   []string
	checks  map[string]ReadinessCheck
	metrics http.Handler
}

// NewHealthHandler creates a handler for service. metrics, when non-nil, is
// served at /metrics.
func NewHealthHandler(service string, logger *slog.Logger, checks map[string]ReadinessCheck, metrics http.Handler) *HealthHandler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	slices.Sort(names)

	return &HealthHandler{
		service: service,
		logger:  logger,
		started: time.Now(),
		names:   names,
		checks:  checks,
		metrics: metrics,
	}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the body of /readyz. Checks maps each dependency to
// "ok" or its error.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes mounts the endpoints on mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func (h *HealthHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *HealthHandler) readyz(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Status: "ready", Service: h.service, Checks: make(map[string]string, len(h.names))}
	code := http.StatusOK

	for _, name := range h.names {
		err := h.checks[name]()
		if err == nil {
			resp.Checks[name] = "ok"
			continue
		}
		h.logger.WarnContext(r.Context(), "readiness check failed", slog.String("check", name), slog.String("error", err.Error()))
		resp.Checks[name] = err.Error()
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
