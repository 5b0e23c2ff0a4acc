package query

import (
	"context"
	"fmt"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Engine answers path queries against one namespace
type Engine struct {
	Namespace graphpath.Namespace
	logger    model.Logger
}

// NewEngine creates a new query engine over ns
func NewEngine(ns graphpath.Namespace, logger model.Logger) *Engine {
	if logger == nil {
		logger = model.DefaultLoggerInstance
	}
	return &Engine{
		Namespace: ns,
		logger:    logger,
	}
}

// Parse parses a path description
func (e *Engine) Parse(description string) (graphpath.Path, error) {
	path, err := graphpath.Parse(description)
	recordOperation("parse", err)
	return path, err
}

// Resolve resolves every node along a path description
func (e *Engine) Resolve(description string) (graphpath.ResolvedPath, error) {
	path, err := graphpath.Parse(description)
	if err != nil {
		recordOperation("resolve", err)
		return graphpath.ResolvedPath{}, err
	}
	resolved, err := path.ResolveFully(e.Namespace)
	recordOperation("resolve", err)
	if err != nil {
		e.logger.Debug("Failed to resolve %s: %v", description, err)
		return graphpath.ResolvedPath{}, err
	}
	return resolved, nil
}

// Reduce returns the shortest equivalent address of a path description and
// whether it differs from the parsed description
func (e *Engine) Reduce(description string) (graphpath.Path, bool, error) {
	path, err := graphpath.Parse(description)
	if err != nil {
		recordOperation("reduce", err)
		return graphpath.Path{}, false, err
	}
	reduced, err := path.Reduce(e.Namespace)
	recordOperation("reduce", err)
	if err != nil {
		return graphpath.Path{}, false, err
	}
	changed := !reduced.Equal(path)
	if changed {
		e.logger.Debug("Reduced %s to %s", path.Description(), reduced.Description())
	}
	return reduced, changed, nil
}

// EnumerateRequest describes an enumeration in terms of path descriptions
type EnumerateRequest struct {
	Seeds             []string // Seed path descriptions
	MaxLength         *int     // Maximum edge count of emitted paths; nil means unbounded
	StopAtAddressable bool     // Do not expand past addressable nodes
	StopAt            []string // Path descriptions of nodes not to expand past
	ExcludeProperties []string // Properties never stepped over
	OnlyProperties    []string // If set, the only properties stepped over
}

// Enumerate builds an enumerator for req. Traversal stops emitting once ctx
// is done.
func (e *Engine) Enumerate(ctx context.Context, req EnumerateRequest) (*Enumerator, error) {
	if len(req.Seeds) == 0 {
		err := fmt.Errorf("%w: at least one seed is required", graphpath.ErrInvalidConstruction)
		recordOperation("enumerate", err)
		return nil, err
	}
	if req.MaxLength != nil && *req.MaxLength < 0 {
		err := fmt.Errorf("%w: max length must be non-negative: %d", graphpath.ErrInvalidConstruction, *req.MaxLength)
		recordOperation("enumerate", err)
		return nil, err
	}

	b := NewEnumeratorBuilder().
		WithLogger(e.logger).
		FromDescriptions(e.Namespace, req.Seeds...).
		WithFilter(UntilDone(ctx))
	if req.MaxLength != nil {
		b.WithFilter(MaxPathLength(*req.MaxLength))
	}
	if req.StopAtAddressable {
		b.WithFilter(StopAtAddressable(e.Namespace))
	}
	if len(req.StopAt) > 0 {
		targets := make([]model.Node, 0, len(req.StopAt))
		for _, description := range req.StopAt {
			path, err := graphpath.Parse(description)
			if err != nil {
				recordOperation("enumerate", err)
				return nil, err
			}
			node, err := path.Resolve(e.Namespace)
			if err != nil {
				recordOperation("enumerate", err)
				return nil, err
			}
			targets = append(targets, node)
		}
		b.WithFilter(StopAtNodes(targets...))
	}
	switch {
	case len(req.OnlyProperties) > 0:
		b.WithPropertyFilter(OnlyProperties(req.OnlyProperties...))
	case len(req.ExcludeProperties) > 0:
		b.WithPropertyFilter(ExcludeProperties(req.ExcludeProperties...))
	}

	enumerator, err := b.Build()
	recordOperation("enumerate", err)
	if err != nil {
		return nil, err
	}
	return enumerator, nil
}
