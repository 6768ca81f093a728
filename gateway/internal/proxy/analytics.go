package proxy

import (
	"log/slog"
	"net/http"
)

const (
	analyticsService   = "reportsv2.AnalyticsService"
	analyticsBodyLimit = 4 << 20
	methodExecutive    = "/" + analyticsService + "/GenerateExecutiveAnalytics"
	methodDefect       = "/" + analyticsService + "/GenerateDefectAnalytics"
)

// AnalyticsProxy proxies HTTP requests to the analytics gRPC service.
type AnalyticsProxy struct {
	conn   *ServiceConn
	logger *slog.Logger
}

// NewAnalyticsProxy creates a new analytics service proxy.
func NewAnalyticsProxy(conn *ServiceConn, logger *slog.Logger) *AnalyticsProxy {
	return &AnalyticsProxy{conn: conn, logger: logger}
}

type defectMarker struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type executiveReq struct {
	PipelineName string          `json:"pipeline_name"`
	Defects      []*defectMarker `json:"defects"`
}

type recommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// executiveResp carries the map as base64, the encoding/json form of []byte.
type executiveResp struct {
	KeyFindings     []string          `json:"key_findings"`
	Recommendations []*recommendation `json:"recommendations"`
	MapImage        []byte            `json:"map_image"`
}

type defectReq struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DefectType string  `json:"defect_type"`
	Depth      float64 `json:"depth"`
	Pressure   float64 `json:"pressure"`
	Diameter   float64 `json:"diameter"`
	Age        float64 `json:"age"`
	Vibration  float64 `json:"vibration"`
	RiskLevel  string  `json:"risk_level"`
}

type defectResp struct {
	LLMAnalysis string `json:"llm_analysis"`
	MapImage    []byte `json:"map_image"`
}

// Executive handles POST /api/v1/analytics/executive.
func (p *AnalyticsProxy) Executive(w http.ResponseWriter, r *http.Request) {
	var req executiveReq
	if err := readJSON(r, analyticsBodyLimit, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp executiveResp
	degraded, err := p.conn.Invoke(r, methodExecutive, &req, &resp)
	if err != nil {
		handleGRPCError(w, err, p.logger)
		return
	}
	markDegraded(w, degraded)
	writeJSON(w, http.StatusOK, resp)
}

// Defect handles POST /api/v1/analytics/defects.
func (p *AnalyticsProxy) Defect(w http.ResponseWriter, r *http.Request) {
	var req defectReq
	if err := readJSON(r, analyticsBodyLimit, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp defectResp
	degraded, err := p.conn.Invoke(r, methodDefect, &req, &resp)
	if err != nil {
		handleGRPCError(w, err, p.logger)
		return
	}
	markDegraded(w, degraded)
	writeJSON(w, http.StatusOK, resp)
}

// Ready checks the analytics service's gRPC health.
func (p *AnalyticsProxy) Ready(r *http.Request) error {
	return p.conn.CheckHealth(r.Context(), analyticsService)
}
