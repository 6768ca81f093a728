package proxy

import (
	"log/slog"
	"net/http"
)

const (
	riskService        = "anomaly_detection.RiskService"
	riskBodyLimit      = 8 << 20
	methodPredictOne   = "/" + riskService + "/PredictOne"
	methodPredictBatch = "/" + riskService + "/PredictBatch"
)

// RiskProxy proxies HTTP requests to the prediction gRPC service.
type RiskProxy struct {
	conn   *ServiceConn
	logger *slog.Logger
}

// NewRiskProxy creates a new prediction service proxy.
func NewRiskProxy(conn *ServiceConn, logger *slog.Logger) *RiskProxy {
	return &RiskProxy{conn: conn, logger: logger}
}

type riskReq struct {
	Depth         float64 `json:"depth"`
	Length        float64 `json:"length"`
	DefectType    float64 `json:"defect_type"`
	Pressure      float64 `json:"pressure"`
	Diameter      float64 `json:"diameter"`
	Age           float64 `json:"age"`
	RMSVibration  float64 `json:"rms_vibration"`
	PeakVibration float64 `json:"peak_vibration"`
	AnomalyScore  float64 `json:"anomaly_score"`
}

type riskResp struct {
	RiskPercent float64 `json:"risk_percent"`
	RiskClass   string  `json:"risk_class"`
}

type riskBatchReq struct {
	Requests []*riskReq `json:"requests"`
}

type riskBatchResp struct {
	Responses []*riskResp `json:"responses"`
}

// PredictOne handles POST /api/v1/risk/predict.
func (p *RiskProxy) PredictOne(w http.ResponseWriter, r *http.Request) {
	var req riskReq
	if err := readJSON(r, riskBodyLimit, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp riskResp
	degraded, err := p.conn.Invoke(r, methodPredictOne, &req, &resp)
	if err != nil {
		handleGRPCError(w, err, p.logger)
		return
	}
	markDegraded(w, degraded)
	writeJSON(w, http.StatusOK, resp)
}

// PredictBatch handles POST /api/v1/risk/predict/batch.
func (p *RiskProxy) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req riskBatchReq
	if err := readJSON(r, riskBodyLimit, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp riskBatchResp
	degraded, err := p.conn.Invoke(r, methodPredictBatch, &req, &resp)
	if err != nil {
		handleGRPCError(w, err, p.logger)
		return
	}
	if resp.Responses == nil {
		resp.Responses = []*riskResp{}
	}
	markDegraded(w, degraded)
	writeJSON(w, http.StatusOK, resp)
}

// Ready checks the prediction service's gRPC health.
func (p *RiskProxy) Ready(r *http.Request) error {
	return p.conn.CheckHealth(r.Context(), riskService)
}
