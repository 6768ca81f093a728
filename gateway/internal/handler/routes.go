// Package handler wires the gateway's REST routes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rwrrioe/integrity/gateway/internal/proxy"
)

// Proxies holds the backend service proxies the routes dispatch to.
type Proxies struct {
	Risk      *proxy.RiskProxy
	Analytics *proxy.AnalyticsProxy
}

type readiness interface {
	Ready(r *http.Request) error
}

// RegisterRoutes registers all REST API routes on the given ServeMux.
func RegisterRoutes(mux *http.ServeMux, p *Proxies) {
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /readyz", readyz(map[string]readiness{
		"risk":      p.Risk,
		"analytics": p.Analytics,
	}))

	// Risk prediction
	mux.HandleFunc("POST /api/v1/risk/predict", p.Risk.PredictOne)
	mux.HandleFunc("POST /api/v1/risk/predict/batch", p.Risk.PredictBatch)

	// Analytics
	mux.HandleFunc("POST /api/v1/analytics/executive", p.Analytics.Executive)
	mux.HandleFunc("POST /api/v1/analytics/defects", p.Analytics.Defect)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func readyz(backends map[string]readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyResponse{Status: "ready", Checks: make(map[string]string, len(backends))}
		code := http.StatusOK

		for name, b := range backends {
			if err := b.Ready(r); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
