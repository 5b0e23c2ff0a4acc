package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "x-request-id"

var (
	// rpcRequests counts handled RPCs.
	// Labels: method, code (gRPC status code)
	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "Total RPCs handled by method and status code",
	}, []string{"method", "code"})

	// rpcDuration measures RPC latency.
	// Labels: method
	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "graphpath",
		Subsystem: "rpc",
		Name:      "duration_seconds",
		Help:      "RPC latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

type requestIDKey struct{}

// RequestIDFromContext returns the request id attached by the interceptors
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID reuses the caller's id when it sent one
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}

// startCall tags ctx with a request id and opens a span
func startCall(ctx context.Context, tracer trace.Tracer, method string) (context.Context, string, trace.Span) {
	id := requestID(ctx)
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	ctx, span := tracer.Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.method", method),
			attribute.String("graphpath.request_id", id),
		),
	)
	return ctx, id, span
}

// finishCall records the outcome of an RPC
func finishCall(logger model.Logger, span trace.Span, method, id string, start time.Time, err error) {
	code := status.Code(err)
	elapsed := time.Since(start)
	rpcRequests.WithLabelValues(method, code.String()).Inc()
	rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())

	span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		logger.Warn("%s [%s] failed after %s: %v", method, id, elapsed, err)
	} else {
		logger.Debug("%s [%s] completed in %s", method, id, elapsed)
	}
	span.End()
}

// UnaryInterceptor attaches a request id, traces, counts and logs unary RPCs
func UnaryInterceptor(logger model.Logger, tracer trace.Tracer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, id, span := startCall(ctx, tracer, info.FullMethod)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		resp, err := handler(ctx, req)
		finishCall(logger, span, info.FullMethod, id, start, err)
		return resp, err
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor
func StreamInterceptor(logger model.Logger, tracer trace.Tracer) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, id, span := startCall(ss.Context(), tracer, info.FullMethod)
		_ = ss.SetHeader(metadata.Pairs(RequestIDHeader, id))

		err := handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
		finishCall(logger, span, info.FullMethod, id, start, err)
		return err
	}
}
