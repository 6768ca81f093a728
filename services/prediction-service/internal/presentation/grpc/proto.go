package grpc

// proto.go defines the RiskService server interface and messages described
// by api/proto/anomaly_detection/risk.proto. Messages travel with the JSON
// codec from pkg/rpc, so field tags are the wire names.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "anomaly_detection.RiskService"

// RiskRequest carries the nine model inputs of one reading.
type RiskRequest struct {
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

// RiskResponse is the scored result of one reading.
type RiskResponse struct {
	RiskPercent float64 `json:"risk_percent"`
	RiskClass   string  `json:"risk_class"`
}

// RiskBatchRequest carries many readings.
type RiskBatchRequest struct {
	Requests []*RiskRequest `json:"requests"`
}

// RiskBatchResponse holds one response per request, in request order.
type RiskBatchResponse struct {
	Responses []*RiskResponse `json:"responses"`
}

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	PredictOne(context.Context, *RiskRequest) (*RiskResponse, error)
	PredictBatch(context.Context, *RiskBatchRequest) (*RiskBatchResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) PredictOne(context.Context, *RiskRequest) (*RiskResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PredictOne not implemented")
}
func (UnimplementedRiskServiceServer) PredictBatch(context.Context, *RiskBatchRequest) (*RiskBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PredictBatch not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&_RiskService_serviceDesc, srv)
}

var _RiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "PredictOne", Handler: _RiskService_PredictOne_Handler},
		{MethodName: "PredictBatch", Handler: _RiskService_PredictBatch_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "anomaly_detection/risk.proto",
}

func _RiskService_PredictOne_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(RiskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).PredictOne(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/PredictOne"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).PredictOne(ctx, req.(*RiskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_PredictBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(RiskBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).PredictBatch(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/PredictBatch"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).PredictBatch(ctx, req.(*RiskBatchRequest))
	}
	return interceptor(ctx, req, info, handler)
}
