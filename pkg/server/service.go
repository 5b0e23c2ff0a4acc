package server

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "graphpath.PathService"

const (
	methodParse     = "/" + ServiceName + "/Parse"
	methodResolve   = "/" + ServiceName + "/Resolve"
	methodReduce    = "/" + ServiceName + "/Reduce"
	methodEnumerate = "/" + ServiceName + "/Enumerate"
)

// PathServiceServer is the server API of the path service
type PathServiceServer interface {
	Parse(context.Context, *ParseRequest) (*ParseResponse, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
	Reduce(context.Context, *ReduceRequest) (*ReduceResponse, error)
	Enumerate(*EnumerateRequest, grpc.ServerStreamingServer[PathMessage]) error
}

// ServiceDesc describes the path service to a grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PathServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: unaryHandler(methodParse, PathServiceServer.Parse)},
		{MethodName: "Resolve", Handler: unaryHandler(methodResolve, PathServiceServer.Resolve)},
		{MethodName: "Reduce", Handler: unaryHandler(methodReduce, PathServiceServer.Reduce)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Enumerate", Handler: enumerateHandler, ServerStreams: true},
	},
	Metadata: "graphpath/path_service",
}

// unaryHandler adapts a typed service method to a grpc.MethodHandler
func unaryHandler[Req, Res any](fullMethod string, call func(PathServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PathServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PathServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func enumerateHandler(srv any, stream grpc.ServerStream) error {
	in := new(EnumerateRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PathServiceServer).Enumerate(in, &grpc.GenericServerStream[EnumerateRequest, PathMessage]{ServerStream: stream})
}

// RegisterPathServiceServer registers srv with s
func RegisterPathServiceServer(s grpc.ServiceRegistrar, srv PathServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the path service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

// Parse calls PathService.Parse
func (c *Client) Parse(ctx context.Context, req *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error) {
	out := new(ParseResponse)
	if err := c.cc.Invoke(ctx, methodParse, req, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve calls PathService.Resolve
func (c *Client) Resolve(ctx context.Context, req *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	out := new(ResolveResponse)
	if err := c.cc.Invoke(ctx, methodResolve, req, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Reduce calls PathService.Reduce
func (c *Client) Reduce(ctx context.Context, req *ReduceRequest, opts ...grpc.CallOption) (*ReduceResponse, error) {
	out := new(ReduceResponse)
	if err := c.cc.Invoke(ctx, methodReduce, req, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Enumerate calls PathService.Enumerate and returns the response stream
func (c *Client) Enumerate(ctx context.Context, req *EnumerateRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[PathMessage], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], methodEnumerate, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[EnumerateRequest, PathMessage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
