package grpc

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rwrrioe/integrity/pkg/auth"
	"github.com/rwrrioe/integrity/pkg/rpc"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/application/usecase"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/infrastructure/maprender"
)

// --- Mock implementations ---

type mockEngine struct {
	executive string
	defect    string
	err       error
}

func (m *mockEngine) ExecutiveSummary(context.Context, string, string) (string, error) {
	if m.err != nil {
		return "", &port.NarrativeError{Prompt: "executive", Err: m.err}
	}
	return m.executive, nil
}

func (m *mockEngine) DefectAnalysis(context.Context, model.DefectFeatures) (string, error) {
	if m.err != nil {
		return "", &port.NarrativeError{Prompt: "defect", Err: m.err}
	}
	return m.defect, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildHandler(t *testing.T, engine *mockEngine) *AnalyticsServiceHandler {
	t.Helper()
	style := maprender.DefaultStyle()
	style.TileURL = ""
	renderer, err := maprender.NewRenderer(style, nil, testLogger())
	require.NoError(t, err)

	return NewAnalyticsServiceHandler(
		usecase.NewGenerateExecutive(renderer, engine, nil, testLogger()),
		usecase.NewGenerateDefect(renderer, engine, nil, testLogger()),
		nil,
		testLogger(),
	)
}

func requireGRPCCode(t *testing.T, err error, expected codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, expected, st.Code())
}

func requirePNG(t *testing.T, data []byte) {
	t.Helper()
	_, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func startServer(t *testing.T, h *AnalyticsServiceHandler, opts ServerOptions) *grpclib.ClientConn {
	t.Helper()
	srv, err := NewServer(h, opts, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

const executiveJSON = `{"findings":["Two critical defects"],"recommendations":[{"title":"Dig up","description":"Excavate km 4"}]}`

// --- Tests ---

func TestGenerateExecutiveAnalytics(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		_, err := buildHandler(t, &mockEngine{}).GenerateExecutiveAnalytics(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("null defect returns InvalidArgument", func(t *testing.T) {
		_, err := buildHandler(t, &mockEngine{}).GenerateExecutiveAnalytics(context.Background(),
			&ExecutiveRequest{Defects: []*Defect{nil}})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("assembles the report", func(t *testing.T) {
		h := buildHandler(t, &mockEngine{executive: executiveJSON})
		resp, err := h.GenerateExecutiveAnalytics(context.Background(), &ExecutiveRequest{
			PipelineName: "North Line",
			Defects: []*Defect{
				{Type: "corrosion", Severity: "Critical", Lat: 43.22, Lon: 76.85},
				{Type: "dent", Severity: "Low", Lat: 43.23, Lon: 76.86},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Two critical defects"}, resp.KeyFindings)
		require.Len(t, resp.Recommendations, 1)
		assert.Equal(t, &Recommendation{Priority: "Medium", Title: "Dig up", Description: "Excavate km 4"}, resp.Recommendations[0])
		requirePNG(t, resp.MapImage)
	})

	t.Run("empty defects still answer with a placeholder map", func(t *testing.T) {
		h := buildHandler(t, &mockEngine{executive: `{"findings":[],"recommendations":[]}`})
		resp, err := h.GenerateExecutiveAnalytics(context.Background(), &ExecutiveRequest{PipelineName: "Empty"})
		require.NoError(t, err)
		assert.Empty(t, resp.KeyFindings)
		requirePNG(t, resp.MapImage)
	})

	t.Run("unparseable narrative uses fallback", func(t *testing.T) {
		h := buildHandler(t, &mockEngine{executive: "not json"})
		resp, err := h.GenerateExecutiveAnalytics(context.Background(), &ExecutiveRequest{PipelineName: "P"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Data processing error"}, resp.KeyFindings)
		assert.NotNil(t, resp.Recommendations)
		assert.Empty(t, resp.Recommendations)
	})
}

func TestGenerateDefectAnalytics(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		_, err := buildHandler(t, &mockEngine{}).GenerateDefectAnalytics(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("returns analysis verbatim", func(t *testing.T) {
		h := buildHandler(t, &mockEngine{defect: "  Replace segment.\n"})
		resp, err := h.GenerateDefectAnalytics(context.Background(), &DefectRequest{
			Lat: 43.22, Lon: 76.85, DefectType: "crack", RiskLevel: "High", Vibration: 1.2,
		})
		require.NoError(t, err)
		assert.Equal(t, "  Replace segment.\n", resp.LLMAnalysis)
		requirePNG(t, resp.MapImage)
	})

	t.Run("engine failure returns error text", func(t *testing.T) {
		h := buildHandler(t, &mockEngine{err: errors.New("quota exceeded")})
		resp, err := h.GenerateDefectAnalytics(context.Background(), &DefectRequest{Lat: 1, Lon: 1})
		require.NoError(t, err)
		assert.Equal(t, "Report generation error: quota exceeded", resp.LLMAnalysis)
		requirePNG(t, resp.MapImage)
	})
}

func TestServer_OverTheWire(t *testing.T) {
	engine := &mockEngine{executive: executiveJSON, defect: "ok"}
	conn := startServer(t, buildHandler(t, engine), ServerOptions{Workers: 2})
	ctx := context.Background()

	t.Run("executive report", func(t *testing.T) {
		var resp ExecutiveResponse
		var trailer metadata.MD
		err := conn.Invoke(ctx, "/"+ServiceName+"/GenerateExecutiveAnalytics",
			&ExecutiveRequest{PipelineName: "P", Defects: []*Defect{{Type: "dent", Severity: "High", Lat: 10, Lon: 10}}},
			&resp, rpc.CallOption(), grpclib.Trailer(&trailer))
		require.NoError(t, err)
		assert.Equal(t, []string{"Two critical defects"}, resp.KeyFindings)
		requirePNG(t, resp.MapImage)
		assert.Empty(t, rpc.DegradedReason(trailer))
	})

	t.Run("narrative failure carries degraded trailer", func(t *testing.T) {
		engine.err = errors.New("unreachable")
		defer func() { engine.err = nil }()

		var resp DefectResponse
		var trailer metadata.MD
		err := conn.Invoke(ctx, "/"+ServiceName+"/GenerateDefectAnalytics",
			&DefectRequest{Lat: 10, Lon: 10, DefectType: "dent"}, &resp, rpc.CallOption(), grpclib.Trailer(&trailer))
		require.NoError(t, err)
		assert.Equal(t, "Report generation error: unreachable", resp.LLMAnalysis)
		assert.Equal(t, usecase.ReasonNarrative, rpc.DegradedReason(trailer))
	})

	t.Run("health reports serving", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func TestServer_RequiresToken(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "unit-test-signing-key-0123456789", Issuer: "integrity"})
	require.NoError(t, err)

	conn := startServer(t, buildHandler(t, &mockEngine{defect: "ok"}), ServerOptions{JWT: jwtSvc})

	t.Run("missing token", func(t *testing.T) {
		var resp DefectResponse
		err := conn.Invoke(context.Background(), "/"+ServiceName+"/GenerateDefectAnalytics", &DefectRequest{}, &resp, rpc.CallOption())
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("engineer token", func(t *testing.T) {
		token, err := jwtSvc.GenerateToken(uuid.New(), []string{auth.RoleEngineer})
		require.NoError(t, err)

		var resp DefectResponse
		err = conn.Invoke(auth.ForwardToken(context.Background(), token),
			"/"+ServiceName+"/GenerateDefectAnalytics", &DefectRequest{Lat: 1, Lon: 1}, &resp, rpc.CallOption())
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.LLMAnalysis)
	})
}
