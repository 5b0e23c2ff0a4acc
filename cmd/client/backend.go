package main

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"git.canoozie.net/riddling/graphpath/pkg/model"
	"git.canoozie.net/riddling/graphpath/pkg/query"
	"git.canoozie.net/riddling/graphpath/pkg/server"
)

// backend runs path operations either against a server or a local graph
type backend interface {
	Parse(ctx context.Context, description string) (*server.ParseResponse, error)
	Resolve(ctx context.Context, description string) (*server.ResolveResponse, error)
	Reduce(ctx context.Context, description string) (*server.ReduceResponse, error)
	Enumerate(ctx context.Context, req *server.EnumerateRequest, emit func(server.PathMessage) error) error
	Close() error
}

type remoteBackend struct {
	conn      *grpc.ClientConn
	client    *server.Client
	requestID string
}

func newRemoteBackend(addr, requestID string) (*remoteBackend, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &remoteBackend{conn: conn, client: server.NewClient(conn), requestID: requestID}, nil
}

func (b *remoteBackend) outgoing(ctx context.Context) context.Context {
	if b.requestID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, server.RequestIDHeader, b.requestID)
}

func (b *remoteBackend) Parse(ctx context.Context, description string) (*server.ParseResponse, error) {
	return b.client.Parse(b.outgoing(ctx), &server.ParseRequest{Description: description})
}

func (b *remoteBackend) Resolve(ctx context.Context, description string) (*server.ResolveResponse, error) {
	return b.client.Resolve(b.outgoing(ctx), &server.ResolveRequest{Description: description})
}

func (b *remoteBackend) Reduce(ctx context.Context, description string) (*server.ReduceResponse, error) {
	return b.client.Reduce(b.outgoing(ctx), &server.ReduceRequest{Description: description})
}

func (b *remoteBackend) Enumerate(ctx context.Context, req *server.EnumerateRequest, emit func(server.PathMessage) error) error {
	stream, err := b.client.Enumerate(b.outgoing(ctx), req)
	if err != nil {
		return err
	}
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(*msg); err != nil {
			return err
		}
	}
}

func (b *remoteBackend) Close() error {
	return b.conn.Close()
}

// localBackend serves operations from a graph document loaded in-process
type localBackend struct {
	engine  *query.Engine
	workers int
}

func newLocalBackend(graphPath string, workers int, logger model.Logger) (*localBackend, error) {
	repo, err := model.LoadDocumentFile(graphPath)
	if err != nil {
		return nil, err
	}
	return &localBackend{engine: query.NewEngine(repo, logger), workers: workers}, nil
}

func (b *localBackend) Parse(_ context.Context, description string) (*server.ParseResponse, error) {
	path, err := b.engine.Parse(description)
	if err != nil {
		return nil, err
	}
	return server.NewParseResponse(path), nil
}

func (b *localBackend) Resolve(_ context.Context, description string) (*server.ResolveResponse, error) {
	resolved, err := b.engine.Resolve(description)
	if err != nil {
		return nil, err
	}
	return &server.ResolveResponse{Path: server.NewPathMessage(resolved)}, nil
}

func (b *localBackend) Reduce(_ context.Context, description string) (*server.ReduceResponse, error) {
	reduced, changed, err := b.engine.Reduce(description)
	if err != nil {
		return nil, err
	}
	return &server.ReduceResponse{Description: reduced.Description(), Reduced: changed}, nil
}

func (b *localBackend) Enumerate(ctx context.Context, req *server.EnumerateRequest, emit func(server.PathMessage) error) error {
	enumerator, err := b.engine.Enumerate(ctx, query.EnumerateRequest{
		Seeds:             req.Seeds,
		MaxLength:         req.MaxLength,
		StopAtAddressable: req.StopAtAddressable,
		StopAt:            req.StopAt,
		ExcludeProperties: req.ExcludeProperties,
		OnlyProperties:    req.OnlyProperties,
	})
	if err != nil {
		return err
	}

	sent := 0
	send := func(msg server.PathMessage) (bool, error) {
		if err := emit(msg); err != nil {
			return false, err
		}
		sent++
		return req.Limit <= 0 || sent < req.Limit, nil
	}

	if req.Parallel && b.workers > 1 {
		paths, err := enumerator.CollectParallelN(ctx, b.workers, req.Limit)
		if err != nil {
			return err
		}
		for _, path := range paths {
			more, err := send(server.NewPathMessage(path))
			if err != nil || !more {
				return err
			}
		}
		return nil
	}

	for path := range enumerator.All() {
		more, err := send(server.NewPathMessage(path))
		if err != nil || !more {
			return err
		}
	}
	return ctx.Err()
}

func (b *localBackend) Close() error {
	return nil
}
