//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	gatewayURL string
	token      string
)

func TestMain(m *testing.M) {
	gatewayURL = os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:8000"
	}
	token = os.Getenv("E2E_TOKEN")

	// Wait for the gateway and both backends.
	for i := 0; i < 30; i++ {
		resp, err := http.Get(gatewayURL + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}

	os.Exit(m.Run())
}

func TestHealthCheck(t *testing.T) {
	resp, err := http.Get(gatewayURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestPredictFlow(t *testing.T) {
	features := map[string]any{
		"depth": 4.2, "length": 1000, "defect_type": 1, "pressure": 5.5,
		"diameter": 720, "age": 25, "rms_vibration": 2, "peak_vibration": 2.82,
		"anomaly_score": 0.74,
	}

	resp := postJSON(t, "/api/v1/risk/predict", features)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var one struct {
		RiskPercent float64 `json:"risk_percent"`
		RiskClass   string  `json:"risk_class"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&one))
	assert.Contains(t, []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}, one.RiskClass)
	assert.GreaterOrEqual(t, one.RiskPercent, 0.0)
	assert.LessOrEqual(t, one.RiskPercent, 100.0)

	batch := postJSON(t, "/api/v1/risk/predict/batch", map[string]any{
		"requests": []any{features, features},
	})
	defer batch.Body.Close()
	require.Equal(t, http.StatusOK, batch.StatusCode)

	var many struct {
		Responses []json.RawMessage `json:"responses"`
	}
	require.NoError(t, json.NewDecoder(batch.Body).Decode(&many))
	assert.Len(t, many.Responses, 2)
}

func TestDefectAnalyticsFlow(t *testing.T) {
	resp := postJSON(t, "/api/v1/analytics/defects", map[string]any{
		"lat": 43.238, "lon": 76.945, "defect_type": "corrosion",
		"depth": 4.2, "pressure": 5.5, "diameter": 720, "age": 25,
		"vibration": 2, "risk_level": "High",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		LLMAnalysis string `json:"llm_analysis"`
		MapImage    []byte `json:"map_image"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.LLMAnalysis)
	require.Greater(t, len(body.MapImage), 8)
	assert.Equal(t, "\x89PNG", string(body.MapImage[:4]))
}

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, gatewayURL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
