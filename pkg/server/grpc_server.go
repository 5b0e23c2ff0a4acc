package server

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
	"git.canoozie.net/riddling/graphpath/pkg/query"
)

const defaultMaxResults = 10000

// PathServer implements the gRPC path service on top of a query engine
type PathServer struct {
	engine           *query.Engine
	logger           model.Logger
	tracerProvider   trace.TracerProvider
	maxResults       int
	defaultMaxLength int
	workers          int
}

// Option configures a PathServer
type Option func(*PathServer)

// WithLogger sets the server logger
func WithLogger(logger model.Logger) Option {
	return func(s *PathServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracerProvider sets the provider of RPC spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *PathServer) {
		if tp != nil {
			s.tracerProvider = tp
		}
	}
}

// WithMaxResults caps the number of paths streamed per enumeration
func WithMaxResults(n int) Option {
	return func(s *PathServer) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithDefaultMaxLength bounds enumerations that set no max length
func WithDefaultMaxLength(n int) Option {
	return func(s *PathServer) {
		if n >= 0 {
			s.defaultMaxLength = n
		}
	}
}

// WithWorkers sets the number of iterators used by parallel enumerations
func WithWorkers(n int) Option {
	return func(s *PathServer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewPathServer creates a new instance of the path service
func NewPathServer(engine *query.Engine, opts ...Option) *PathServer {
	s := &PathServer{
		engine:         engine,
		logger:         model.DefaultLoggerInstance,
		tracerProvider: otel.GetTracerProvider(),
		maxResults:     defaultMaxResults,
		workers:        1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGRPCServer creates a grpc.Server with the path service registered and
// the request id, tracing, metrics and logging interceptors installed
func NewGRPCServer(engine *query.Engine, opts ...Option) (*grpc.Server, *PathServer) {
	s := NewPathServer(engine, opts...)
	tracer := s.tracerProvider.Tracer("graphpath/server")
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryInterceptor(s.logger, tracer)),
		grpc.ChainStreamInterceptor(StreamInterceptor(s.logger, tracer)),
	)
	RegisterPathServiceServer(grpcServer, s)
	return grpcServer, s
}

// Parse returns the structure of a path description
func (s *PathServer) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	path, err := s.engine.Parse(req.Description)
	if err != nil {
		return nil, toStatus(err)
	}
	return NewParseResponse(path), nil
}

// Resolve returns every node along a path
func (s *PathServer) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	resolved, err := s.engine.Resolve(req.Description)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ResolveResponse{Path: NewPathMessage(resolved)}, nil
}

// Reduce returns the shortest equivalent address of a path
func (s *PathServer) Reduce(ctx context.Context, req *ReduceRequest) (*ReduceResponse, error) {
	reduced, changed, err := s.engine.Reduce(req.Description)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReduceResponse{
		Description: reduced.Description(),
		Reduced:     changed,
	}, nil
}

// Enumerate streams the paths reachable from the request seeds
func (s *PathServer) Enumerate(req *EnumerateRequest, stream grpc.ServerStreamingServer[PathMessage]) error {
	ctx := stream.Context()
	maxLength := req.MaxLength
	if maxLength == nil && s.defaultMaxLength > 0 {
		maxLength = ptr(s.defaultMaxLength)
	}
	enumerator, err := s.engine.Enumerate(ctx, query.EnumerateRequest{
		Seeds:             req.Seeds,
		MaxLength:         maxLength,
		StopAtAddressable: req.StopAtAddressable,
		StopAt:            req.StopAt,
		ExcludeProperties: req.ExcludeProperties,
		OnlyProperties:    req.OnlyProperties,
	})
	if err != nil {
		return toStatus(err)
	}

	limit := s.maxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	if req.Parallel && s.workers > 1 {
		return s.sendCollected(ctx, enumerator, limit, stream)
	}

	sent := 0
	for path := range enumerator.All() {
		if err := stream.Send(ptr(NewPathMessage(path))); err != nil {
			return err
		}
		sent++
		if sent >= limit {
			s.logger.Debug("Enumeration stopped at limit %d", limit)
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return toStatus(err)
	}
	return nil
}

// sendCollected collects at most limit paths on the server's workers, then
// streams them
func (s *PathServer) sendCollected(ctx context.Context, enumerator *query.Enumerator, limit int, stream grpc.ServerStreamingServer[PathMessage]) error {
	paths, err := enumerator.CollectParallelN(ctx, s.workers, limit)
	if err != nil {
		return toStatus(err)
	}
	for _, path := range paths {
		if err := stream.Send(ptr(NewPathMessage(path))); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

// toStatus maps engine errors to gRPC status codes
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, graphpath.ErrMalformedSyntax), errors.Is(err, graphpath.ErrInvalidConstruction):
		code = codes.InvalidArgument
	case errors.Is(err, graphpath.ErrUnresolvableStart), errors.Is(err, graphpath.ErrBrokenEdge):
		code = codes.NotFound
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}
