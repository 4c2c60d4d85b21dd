package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// GuidingServer is the service implemented by Server. It stands in for a
// protoc-generated interface: since the service's messages are plain Go
// structs marshaled by jsonCodec rather than .proto-generated types,
// there is no protoc-gen-go-grpc stub to generate it from.
type GuidingServer interface {
	Fit(context.Context, *FitRequest) (*FitResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Sample(context.Context, *SampleRequest) (*SampleResponse, error)
	PDF(context.Context, *PDFRequest) (*PDFResponse, error)
	GetStats(context.Context, *StatsRequest) (*StatsResponse, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

func fitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).Fit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/Fit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).Fit(ctx, req.(*FitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).Update(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/Update"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).Update(ctx, req.(*UpdateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sampleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SampleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).Sample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/Sample"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).Sample(ctx, req.(*SampleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pdfHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PDFRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).PDF(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/PDF"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).PDF(ctx, req.(*PDFRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/GetStats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).GetStats(ctx, req.(*StatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func healthCheckHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GuidingServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/guiding.Guiding/HealthCheck"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GuidingServer).HealthCheck(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc plays the role of the protoc-generated *_grpc.pb.go
// ServiceDesc: it wires RPC names to the unary handlers above by hand.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "guiding.Guiding",
	HandlerType: (*GuidingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fit", Handler: fitHandler},
		{MethodName: "Update", Handler: updateHandler},
		{MethodName: "Sample", Handler: sampleHandler},
		{MethodName: "PDF", Handler: pdfHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
		{MethodName: "HealthCheck", Handler: healthCheckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "guiding.proto",
}

// RegisterGuidingServer registers srv on s the way a generated
// Register<Service>Server function would.
func RegisterGuidingServer(s grpc.ServiceRegistrar, srv GuidingServer) {
	s.RegisterService(&serviceDesc, srv)
}

// GuidingClient is the client-side counterpart of GuidingServer.
type GuidingClient interface {
	Fit(ctx context.Context, in *FitRequest, opts ...grpc.CallOption) (*FitResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error)
	PDF(ctx context.Context, in *PDFRequest, opts ...grpc.CallOption) (*PDFResponse, error)
	GetStats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
	HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

type guidingClient struct {
	cc grpc.ClientConnInterface
}

// NewGuidingClient creates a client stub over cc.
func NewGuidingClient(cc grpc.ClientConnInterface) GuidingClient {
	return &guidingClient{cc}
}

func (c *guidingClient) Fit(ctx context.Context, in *FitRequest, opts ...grpc.CallOption) (*FitResponse, error) {
	out := new(FitResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/Fit", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *guidingClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	out := new(UpdateResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *guidingClient) Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error) {
	out := new(SampleResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/Sample", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *guidingClient) PDF(ctx context.Context, in *PDFRequest, opts ...grpc.CallOption) (*PDFResponse, error) {
	out := new(PDFResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/PDF", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *guidingClient) GetStats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/GetStats", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *guidingClient) HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	if err := c.cc.Invoke(ctx, "/guiding.Guiding/HealthCheck", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
