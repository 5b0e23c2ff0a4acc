package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"git.canoozie.net/riddling/graphpath/pkg/model"
	"git.canoozie.net/riddling/graphpath/pkg/query"
)

const testDocument = `
nodes:
  - id: 1
    label: Class
    name: ClassA
    package: test::domain
    source: {file: domain.pure, line: 3, column: 1}
    properties:
      - key: properties
        values: [2, 3]
  - id: 2
    label: Property
    name: prop1
    properties:
      - key: functionName
        literals: [getProp1]
  - id: 3
    label: Property
    name: prop2
    properties:
      - key: functionName
        literals: [getProp2]
      - key: genericType
        values: [4]
  - id: 4
    label: GenericType
    properties:
      - key: rawType
        values: [5]
  - id: 5
    label: Class
    name: ClassB
    package: test::domain
`

type testServer struct {
	client   *Client
	recorder *tracetest.SpanRecorder
}

func startTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	return startDocumentServer(t, testDocument, opts...)
}

func startDocumentServer(t *testing.T, document string, opts ...Option) *testServer {
	t.Helper()

	doc, err := model.ParseDocument([]byte(document))
	require.NoError(t, err)
	repo, err := doc.Build()
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	opts = append([]Option{WithLogger(model.NewNoOpLogger()), WithTracerProvider(tp)}, opts...)
	grpcServer, _ := NewGRPCServer(query.NewEngine(repo, model.NewNoOpLogger()), opts...)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testServer{client: NewClient(conn), recorder: recorder}
}

func collectStream(t *testing.T, stream grpc.ServerStreamingClient[PathMessage]) ([]string, error) {
	t.Helper()
	var descriptions []string
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return descriptions, nil
		}
		if err != nil {
			return descriptions, err
		}
		descriptions = append(descriptions, msg.Description)
	}
}

func TestParse(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.client.Parse(context.Background(), &ParseRequest{
		Description: "test::domain::ClassA.properties[1].genericType.properties[name='x']",
	})
	require.NoError(t, err)
	assert.Equal(t, "test::domain::ClassA", resp.Start)
	require.Len(t, resp.Edges, 3)
	assert.Equal(t, "at_index", resp.Edges[0].Kind)
	require.NotNil(t, resp.Edges[0].Index)
	assert.Equal(t, 1, *resp.Edges[0].Index)
	assert.Equal(t, EdgeMessage{Kind: "to_one", Property: "genericType"}, resp.Edges[1])
	assert.Equal(t, EdgeMessage{Kind: "with_key", Property: "properties", KeyProperty: "name", Key: "x"}, resp.Edges[2])
	assert.NotEmpty(t, resp.Expression)

	_, err = ts.client.Parse(context.Background(), &ParseRequest{Description: "test::domain::ClassA.properties["})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResolve(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.client.Resolve(context.Background(), &ResolveRequest{
		Description: "test::domain::ClassA.properties['prop2'].genericType.rawType",
	})
	require.NoError(t, err)
	require.Len(t, resp.Path.Nodes, 4)
	assert.Equal(t, "ClassA", resp.Path.Nodes[0].Name)
	assert.Equal(t, "Class", resp.Path.Nodes[0].Label)
	require.NotNil(t, resp.Path.Nodes[0].Source)
	assert.Equal(t, "domain.pure", resp.Path.Nodes[0].Source.SourceID)
	assert.Equal(t, "ClassB", resp.Path.Nodes[3].Name)

	_, err = ts.client.Resolve(context.Background(), &ResolveRequest{Description: "test::domain::Missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = ts.client.Resolve(context.Background(), &ResolveRequest{Description: "test::domain::ClassA.properties[9]"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "domain.pure:3 c1")
}

func TestReduce(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.client.Reduce(context.Background(), &ReduceRequest{
		Description: "test::domain::ClassA.properties['prop2'].genericType.rawType",
	})
	require.NoError(t, err)
	assert.Equal(t, "test::domain::ClassB", resp.Description)
	assert.True(t, resp.Reduced)

	resp, err = ts.client.Reduce(context.Background(), &ReduceRequest{Description: "test::domain::ClassA"})
	require.NoError(t, err)
	assert.Equal(t, "test::domain::ClassA", resp.Description)
	assert.False(t, resp.Reduced)
}

func TestEnumerate(t *testing.T) {
	ts := startTestServer(t)

	stream, err := ts.client.Enumerate(context.Background(), &EnumerateRequest{
		Seeds:          []string{"test::domain::ClassA"},
		OnlyProperties: []string{"properties", "genericType"},
	})
	require.NoError(t, err)
	got, err := collectStream(t, stream)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"test::domain::ClassA.properties[0]",
		"test::domain::ClassA.properties[1]",
		"test::domain::ClassA.properties[1].genericType",
	}, got)
}

func TestEnumerateLimits(t *testing.T) {
	ts := startTestServer(t, WithMaxResults(2))

	stream, err := ts.client.Enumerate(context.Background(), &EnumerateRequest{Seeds: []string{"test::domain::ClassA"}})
	require.NoError(t, err)
	got, err := collectStream(t, stream)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	stream, err = ts.client.Enumerate(context.Background(), &EnumerateRequest{Seeds: []string{"test::domain::ClassA"}, Limit: 1})
	require.NoError(t, err)
	got, err = collectStream(t, stream)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEnumerateDefaultMaxLength(t *testing.T) {
	ts := startTestServer(t, WithDefaultMaxLength(1))

	stream, err := ts.client.Enumerate(context.Background(), &EnumerateRequest{
		Seeds:             []string{"test::domain::ClassA"},
		ExcludeProperties: []string{"package"},
	})
	require.NoError(t, err)
	got, err := collectStream(t, stream)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"test::domain::ClassA.properties[0]",
		"test::domain::ClassA.properties[1]",
	}, got)
}

func TestEnumerateMaxLength(t *testing.T) {
	ts := startTestServer(t, WithDefaultMaxLength(1))

	tests := []struct {
		name      string
		maxLength *int
		want      int
	}{
		{name: "Server default", maxLength: nil, want: 2},
		{name: "Zero", maxLength: ptr(0), want: 0},
		{name: "Explicit", maxLength: ptr(2), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := ts.client.Enumerate(context.Background(), &EnumerateRequest{
				Seeds:             []string{"test::domain::ClassA"},
				MaxLength:         tt.maxLength,
				ExcludeProperties: []string{"package"},
			})
			require.NoError(t, err)
			got, err := collectStream(t, stream)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestEnumerateErrors(t *testing.T) {
	ts := startTestServer(t)

	tests := []struct {
		name string
		req  *EnumerateRequest
		want codes.Code
	}{
		{name: "No seeds", req: &EnumerateRequest{}, want: codes.InvalidArgument},
		{name: "Negative max length", req: &EnumerateRequest{Seeds: []string{"test::domain::ClassA"}, MaxLength: ptr(-1)}, want: codes.InvalidArgument},
		{name: "Unknown seed", req: &EnumerateRequest{Seeds: []string{"test::domain::Missing"}}, want: codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := ts.client.Enumerate(context.Background(), tt.req)
			require.NoError(t, err)
			_, err = collectStream(t, stream)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestRequestID(t *testing.T) {
	ts := startTestServer(t)

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-42")
	_, err := ts.client.Parse(ctx, &ParseRequest{Description: "test::domain::ClassA"}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDHeader))

	header = nil
	_, err = ts.client.Parse(context.Background(), &ParseRequest{Description: "test::domain::ClassA"}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(RequestIDHeader), 1)
	assert.NotEmpty(t, header.Get(RequestIDHeader)[0])
}

func TestTracing(t *testing.T) {
	ts := startTestServer(t)

	_, err := ts.client.Resolve(context.Background(), &ResolveRequest{Description: "test::domain::ClassA"})
	require.NoError(t, err)
	_, err = ts.client.Resolve(context.Background(), &ResolveRequest{Description: "test::domain::Missing"})
	require.Error(t, err)

	spans := ts.recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, methodResolve, spans[0].Name())
	assert.Equal(t, otelcodes.Unset, spans[0].Status().Code)
	assert.Equal(t, otelcodes.Error, spans[1].Status().Code)
}

func TestRPCMetrics(t *testing.T) {
	ts := startTestServer(t)
	counter := rpcRequests.WithLabelValues(methodReduce, codes.OK.String())
	before := testutil.ToFloat64(counter)

	_, err := ts.client.Reduce(context.Background(), &ReduceRequest{Description: "test::domain::ClassA"})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(errors.New("boom"))))
}

func TestEnumerateParallel(t *testing.T) {
	ts := startTestServer(t, WithWorkers(3))

	req := &EnumerateRequest{
		Seeds:             []string{"test::domain::ClassA"},
		ExcludeProperties: []string{"package"},
	}
	stream, err := ts.client.Enumerate(context.Background(), req)
	require.NoError(t, err)
	sequential, err := collectStream(t, stream)
	require.NoError(t, err)

	req.Parallel = true
	stream, err = ts.client.Enumerate(context.Background(), req)
	require.NoError(t, err)
	parallel, err := collectStream(t, stream)
	require.NoError(t, err)
	assert.ElementsMatch(t, sequential, parallel)
}

// denseDocument links each of n top-level nodes to all the others
func denseDocument(n int) string {
	var b strings.Builder
	b.WriteString("nodes:\n")
	for i := 1; i <= n; i++ {
		var targets []string
		for j := 1; j <= n; j++ {
			if j != i {
				targets = append(targets, fmt.Sprint(j))
			}
		}
		fmt.Fprintf(&b, "  - {id: %d, label: Node, name: N%d, package: dense, properties: [{key: to, values: [%s]}]}\n",
			i, i, strings.Join(targets, ", "))
	}
	return b.String()
}

func pathsEmitted(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "graphpath_enumerator_paths_emitted_total" {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestEnumerateParallelLimit(t *testing.T) {
	const workers, limit = 4, 2
	ts := startDocumentServer(t, denseDocument(8), WithWorkers(workers))

	before := pathsEmitted(t)
	stream, err := ts.client.Enumerate(context.Background(), &EnumerateRequest{
		Seeds:    []string{"dense::N1"},
		Limit:    limit,
		Parallel: true,
	})
	require.NoError(t, err)
	got, err := collectStream(t, stream)
	require.NoError(t, err)

	assert.Len(t, got, limit)
	assert.LessOrEqual(t, pathsEmitted(t)-before, float64(limit+workers-1))
}
