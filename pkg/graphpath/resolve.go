package graphpath

import (
	"fmt"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

func (p Path) startNode(resolver Resolver) (model.Node, error) {
	node := resolver.Resolve(p.start)
	if node == nil {
		return nil, &UnresolvableStartError{Start: p.start}
	}
	return node, nil
}

// applyEdge applies the edge at index to node, attaching path context to
// any failure
func (p Path) applyEdge(node model.Node, index int) (model.Node, error) {
	next, err := p.edges[index].Apply(node)
	if err != nil {
		return nil, &BrokenEdgeError{Partial: p.partialDescription(index), Final: node, Err: err}
	}
	return next, nil
}

// ForEachNode resolves the path and calls fn with each node in order,
// starting with the start node
func (p Path) ForEachNode(resolver Resolver, fn func(index int, node model.Node)) error {
	node, err := p.startNode(resolver)
	if err != nil {
		return err
	}
	fn(0, node)
	for i := range p.edges {
		if node, err = p.applyEdge(node, i); err != nil {
			return err
		}
		fn(i+1, node)
	}
	return nil
}

// Resolve returns the node the path leads to
func (p Path) Resolve(resolver Resolver) (model.Node, error) {
	return p.ResolveUpTo(len(p.edges), resolver)
}

// ResolveUpTo returns the node reached after applying the first end edges.
// A negative end counts from the last edge.
func (p Path) ResolveUpTo(end int, resolver Resolver) (model.Node, error) {
	resolved, err := p.resolveIndex(end)
	if err != nil {
		return nil, err
	}
	node, err := p.startNode(resolver)
	if err != nil {
		return nil, err
	}
	for i := 0; i < resolved; i++ {
		if node, err = p.applyEdge(node, i); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// ResolveFully resolves every node along the path
func (p Path) ResolveFully(resolver Resolver) (ResolvedPath, error) {
	nodes := make([]model.Node, 0, p.NodeCount())
	err := p.ForEachNode(resolver, func(_ int, node model.Node) {
		nodes = append(nodes, node)
	})
	if err != nil {
		return ResolvedPath{}, err
	}
	return ResolvedPath{path: p, nodes: nodes}, nil
}

// Reduce returns the shortest suffix of the path that starts at an
// addressable node. It walks the path once and restarts it at the last
// addressable node found after the start; if there is none the path is
// returned unchanged. Reducing a reduced path is a no-op.
func (p Path) Reduce(ns Namespace) (Path, error) {
	if len(p.edges) == 0 {
		return p, nil
	}
	node, err := p.startNode(ns)
	if err != nil {
		return Path{}, err
	}

	lastAddressable := node
	newStart := 0
	for i := range p.edges {
		if node, err = p.applyEdge(node, i); err != nil {
			return Path{}, err
		}
		if ns.IsAddressable(node) {
			lastAddressable = node
			newStart = i + 1
		}
	}
	if newStart == 0 {
		return p, nil
	}

	address, err := ns.AddressOf(lastAddressable)
	if err != nil {
		return Path{}, fmt.Errorf("reducing %s: %w", p.Description(), err)
	}
	if newStart == len(p.edges) {
		return Path{start: address}, nil
	}
	edges := make([]Edge, len(p.edges)-newStart)
	copy(edges, p.edges[newStart:])
	return Path{start: address, edges: edges}, nil
}
