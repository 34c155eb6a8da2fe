// Package preview exposes rule simulation and run lookup over gRPC.
//
// Messages are google.protobuf.Struct documents with the same JSON shape the
// HTTP API accepts and returns, so the service needs no generated stubs.
package preview

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "pricing.v1.PreviewService"

const (
	simulateMethod = "/" + ServiceName + "/Simulate"
	getRunMethod   = "/" + ServiceName + "/GetRun"
)

// PreviewServiceServer is the server API for PreviewService.
type PreviewServiceServer interface {
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes PreviewService for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PreviewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: unaryHandler(simulateMethod, PreviewServiceServer.Simulate)},
		{MethodName: "GetRun", Handler: unaryHandler(getRunMethod, PreviewServiceServer.GetRun)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricing/v1/preview.proto",
}

// RegisterPreviewServiceServer registers srv on s.
func RegisterPreviewServiceServer(s grpc.ServiceRegistrar, srv PreviewServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type method func(PreviewServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call method) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PreviewServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PreviewServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is a PreviewService client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Simulate calls PreviewService.Simulate.
func (c *Client) Simulate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, simulateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun calls PreviewService.GetRun.
func (c *Client) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRunMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
