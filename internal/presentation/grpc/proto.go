package grpc

// proto.go hand-writes the service descriptor for bib.registryrisk.v1.RiskService.
// Messages travel as JSON through the codec registered below; clients select
// it with grpclib.CallContentSubtype(CodecName).

import (
	"context"
	"encoding/json"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// CodecName is the content subtype of the JSON codec.
const CodecName = "json"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bib.registryrisk.v1.RiskService"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)     { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	FraudCheck(context.Context, *FraudCheckRequest) (*FraudCheckResponse, error)
	BatchCheck(context.Context, *BatchCheckRequest) (*BatchCheckResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) FraudCheck(context.Context, *FraudCheckRequest) (*FraudCheckResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method FraudCheck not implemented")
}
func (UnimplementedRiskServiceServer) BatchCheck(context.Context, *BatchCheckRequest) (*BatchCheckResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BatchCheck not implemented")
}
func (UnimplementedRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
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
		{MethodName: "FraudCheck", Handler: _RiskService_FraudCheck_Handler},
		{MethodName: "BatchCheck", Handler: _RiskService_BatchCheck_Handler},
		{MethodName: "GetAssessment", Handler: _RiskService_GetAssessment_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _RiskService_FraudCheck_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(FraudCheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).FraudCheck(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/FraudCheck"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).FraudCheck(ctx, req.(*FraudCheckRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_BatchCheck_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(BatchCheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).BatchCheck(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/BatchCheck"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).BatchCheck(ctx, req.(*BatchCheckRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_GetAssessment_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetAssessmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetAssessment(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetAssessment"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// RiskServiceClient is the client API for RiskService.
type RiskServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewRiskServiceClient creates a client over an established connection.
func NewRiskServiceClient(cc grpclib.ClientConnInterface) *RiskServiceClient {
	return &RiskServiceClient{cc: cc}
}

func (c *RiskServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpclib.CallOption) error {
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

// FraudCheck assesses one subject.
func (c *RiskServiceClient) FraudCheck(ctx context.Context, in *FraudCheckRequest, opts ...grpclib.CallOption) (*FraudCheckResponse, error) {
	out := new(FraudCheckResponse)
	if err := c.invoke(ctx, "FraudCheck", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// BatchCheck assesses up to 100 subjects.
func (c *RiskServiceClient) BatchCheck(ctx context.Context, in *BatchCheckRequest, opts ...grpclib.CallOption) (*BatchCheckResponse, error) {
	out := new(BatchCheckResponse)
	if err := c.invoke(ctx, "BatchCheck", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAssessment fetches a stored assessment.
func (c *RiskServiceClient) GetAssessment(ctx context.Context, in *GetAssessmentRequest, opts ...grpclib.CallOption) (*GetAssessmentResponse, error) {
	out := new(GetAssessmentResponse)
	if err := c.invoke(ctx, "GetAssessment", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
