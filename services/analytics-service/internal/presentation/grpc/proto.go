package grpc

// proto.go defines the AnalyticsService server interface and messages
// described by api/proto/reportsv2/analytics.proto. Messages travel with the
// JSON codec from pkg/rpc; bytes fields are base64 strings on the wire.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "reportsv2.AnalyticsService"

// Defect is one located defect of an executive request.
type Defect struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// ExecutiveRequest asks for a pipeline-level report.
type ExecutiveRequest struct {
	PipelineName string    `json:"pipeline_name"`
	Defects      []*Defect `json:"defects"`
}

// Recommendation is one prioritized action item.
type Recommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExecutiveResponse is the pipeline-level report.
type ExecutiveResponse struct {
	KeyFindings     []string          `json:"key_findings"`
	Recommendations []*Recommendation `json:"recommendations"`
	MapImage        []byte            `json:"map_image"`
}

// DefectRequest asks for a single-defect report.
type DefectRequest struct {
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

// DefectResponse is the single-defect report.
type DefectResponse struct {
	LLMAnalysis string `json:"llm_analysis"`
	MapImage    []byte `json:"map_image"`
}

// AnalyticsServiceServer is the server API for AnalyticsService.
type AnalyticsServiceServer interface {
	GenerateExecutiveAnalytics(context.Context, *ExecutiveRequest) (*ExecutiveResponse, error)
	GenerateDefectAnalytics(context.Context, *DefectRequest) (*DefectResponse, error)
	mustEmbedUnimplementedAnalyticsServiceServer()
}

// UnimplementedAnalyticsServiceServer provides forward-compatible default implementations.
type UnimplementedAnalyticsServiceServer struct{}

func (UnimplementedAnalyticsServiceServer) GenerateExecutiveAnalytics(context.Context, *ExecutiveRequest) (*ExecutiveResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GenerateExecutiveAnalytics not implemented")
}
func (UnimplementedAnalyticsServiceServer) GenerateDefectAnalytics(context.Context, *DefectRequest) (*DefectResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GenerateDefectAnalytics not implemented")
}
func (UnimplementedAnalyticsServiceServer) mustEmbedUnimplementedAnalyticsServiceServer() {}

// RegisterAnalyticsServiceServer registers the AnalyticsServiceServer with the gRPC server.
func RegisterAnalyticsServiceServer(s grpclib.ServiceRegistrar, srv AnalyticsServiceServer) {
	s.RegisterService(&_AnalyticsService_serviceDesc, srv)
}

var _AnalyticsService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyticsServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "GenerateExecutiveAnalytics", Handler: _AnalyticsService_GenerateExecutiveAnalytics_Handler},
		{MethodName: "GenerateDefectAnalytics", Handler: _AnalyticsService_GenerateDefectAnalytics_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "reportsv2/analytics.proto",
}

func _AnalyticsService_GenerateExecutiveAnalytics_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ExecutiveRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyticsServiceServer).GenerateExecutiveAnalytics(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GenerateExecutiveAnalytics"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyticsServiceServer).GenerateExecutiveAnalytics(ctx, req.(*ExecutiveRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _AnalyticsService_GenerateDefectAnalytics_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(DefectRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyticsServiceServer).GenerateDefectAnalytics(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GenerateDefectAnalytics"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyticsServiceServer).GenerateDefectAnalytics(ctx, req.(*DefectRequest))
	}
	return interceptor(ctx, req, info, handler)
}
