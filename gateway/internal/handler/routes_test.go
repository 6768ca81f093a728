package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rwrrioe/integrity/gateway/internal/proxy"
	"github.com/rwrrioe/integrity/pkg/rpc"
)

const (
	riskService      = "anomaly_detection.RiskService"
	analyticsService = "reportsv2.AnalyticsService"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoBackend answers every call with the method name and marks it degraded.
func echoBackend(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	var req map[string]any
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	stream.SetTrailer(metadata.Pairs(rpc.DegradedTrailer, "map"))

	switch {
	case strings.HasSuffix(method, "/PredictOne"):
		return stream.SendMsg(map[string]any{"risk_percent": 91.5, "risk_class": "CRITICAL"})
	case strings.HasSuffix(method, "/PredictBatch"):
		return stream.SendMsg(map[string]any{"responses": []any{}})
	case strings.HasSuffix(method, "/GenerateExecutiveAnalytics"):
		return stream.SendMsg(map[string]any{"key_findings": []string{"ok"}, "recommendations": []any{}, "map_image": "cG5n"})
	default:
		return stream.SendMsg(map[string]any{"llm_analysis": method, "map_image": "cG5n"})
	}
}

func backendProxies(t *testing.T, serving ...string) *Proxies {
	t.Helper()

	srv := grpc.NewServer(grpc.UnknownServiceHandler(echoBackend))
	hs := health.NewServer()
	for _, s := range serving {
		hs.SetServingStatus(s, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(srv, hs)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := proxy.Dial("backend", "passthrough:///bufnet", proxy.DialOptions{
		Extra: []grpc.DialOption{grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})},
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &Proxies{
		Risk:      proxy.NewRiskProxy(conn, testLogger()),
		Analytics: proxy.NewAnalyticsProxy(conn, testLogger()),
	}
}

func newMux(p *Proxies) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, p)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newMux(&Proxies{}), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("backends serving", func(t *testing.T) {
		rec := do(newMux(backendProxies(t, riskService, analyticsService)), http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"risk":"ok","analytics":"ok"}}`, rec.Body.String())
	})

	t.Run("analytics not serving", func(t *testing.T) {
		rec := do(newMux(backendProxies(t, riskService)), http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body readyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "ok", body.Checks["risk"])
		assert.NotEqual(t, "ok", body.Checks["analytics"])
	})

	t.Run("not connected", func(t *testing.T) {
		p := &Proxies{
			Risk:      proxy.NewRiskProxy(nil, testLogger()),
			Analytics: proxy.NewAnalyticsProxy(nil, testLogger()),
		}
		rec := do(newMux(p), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRoutes_Dispatch(t *testing.T) {
	mux := newMux(backendProxies(t))

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/v1/risk/predict", `{"depth":3}`, `"risk_class":"CRITICAL"`},
		{"/api/v1/risk/predict/batch", `{"requests":[]}`, `"responses":[]`},
		{"/api/v1/analytics/executive", `{"pipeline_name":"P","defects":[]}`, `"key_findings":["ok"]`},
		{"/api/v1/analytics/defects", `{"lat":1,"lon":2}`, `/reportsv2.AnalyticsService/GenerateDefectAnalytics`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(mux, http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Equal(t, "map", rec.Header().Get(proxy.DegradedHeader))
		})
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	rec := do(newMux(&Proxies{
		Risk:      proxy.NewRiskProxy(nil, testLogger()),
		Analytics: proxy.NewAnalyticsProxy(nil, testLogger()),
	}), http.MethodGet, "/api/v1/risk/predict", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
