// Package graphpath names nodes of a property graph with compact textual
// addresses. A Path is a start element path followed by a sequence of
// edges, each stepping over one property of the current node:
//
//	test::domain::ClassA.properties['prop2'].genericType.rawType
//
// Paths are immutable values. They are built with a Builder or parsed from
// their description, resolved against a Resolver, and can be reduced to a
// shorter equivalent address with a Namespace.
package graphpath

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Resolver looks up nodes by element path. It returns nil for unknown paths.
type Resolver interface {
	Resolve(path string) model.Node
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(path string) model.Node

// Resolve implements Resolver
func (f ResolverFunc) Resolve(path string) model.Node {
	return f(path)
}

// Namespace is a Resolver that also knows which nodes have their own
// global address
type Namespace interface {
	Resolver
	IsAddressable(node model.Node) bool
	AddressOf(node model.Node) (string, error)
}

// Path is a start element path plus an ordered sequence of edges. The zero
// value is not a valid path.
type Path struct {
	start string
	edges []Edge
}

// Start returns the element path of the start node
func (p Path) Start() string {
	return p.start
}

// EdgeCount returns the number of edges
func (p Path) EdgeCount() int {
	return len(p.edges)
}

// NodeCount returns the number of nodes the path visits, including its start
func (p Path) NodeCount() int {
	return len(p.edges) + 1
}

// Edge returns the edge at index i
func (p Path) Edge(i int) Edge {
	return p.edges[i]
}

// Edges returns a copy of the edges
func (p Path) Edges() []Edge {
	edges := make([]Edge, len(p.edges))
	copy(edges, p.edges)
	return edges
}

// IsZero reports whether p is the zero Path
func (p Path) IsZero() bool {
	return p.start == "" && len(p.edges) == 0
}

// Description returns the parseable text form of the path
func (p Path) Description() string {
	var sb strings.Builder
	sb.Grow(len(p.start) + 16*len(p.edges))
	writeDescription(&sb, p.start, p.edges)
	return sb.String()
}

// Expression returns the path written as a query expression, e.g.
// A.children->find(x | $x.name == 'y')->toOne()
func (p Path) Expression() string {
	var sb strings.Builder
	sb.Grow(len(p.start) + 32*len(p.edges))
	writeExpression(&sb, p.start, p.edges)
	return sb.String()
}

func (p Path) String() string {
	return p.Description()
}

// Equal reports whether p and other have the same start and edges
func (p Path) Equal(other Path) bool {
	if p.start != other.start || len(p.edges) != len(other.edges) {
		return false
	}
	for i, edge := range p.edges {
		if edge != other.edges[i] {
			return false
		}
	}
	return true
}

// Hash returns a structural hash; equal paths have equal hashes
func (p Path) Hash() uint64 {
	d := xxhash.New()
	d.WriteString(p.start)
	d.WriteString("\x00")
	for _, edge := range p.edges {
		edge.writeHash(d)
	}
	return d.Sum64()
}

// Key returns a string that identifies the path structurally, suitable for
// use as a map key
func (p Path) Key() string {
	return p.Description()
}

// resolveIndex maps a possibly negative edge index to [0, len(edges)]
func (p Path) resolveIndex(end int) (int, error) {
	resolved := end
	if end < 0 {
		resolved = len(p.edges) + end
	}
	if resolved < 0 || resolved > len(p.edges) {
		return 0, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, end, len(p.edges))
	}
	return resolved, nil
}

// Subpath returns the path made of the first end edges. A negative end
// counts from the last edge, so -1 drops the final edge.
func (p Path) Subpath(end int) (Path, error) {
	if end == len(p.edges) {
		return p, nil
	}
	resolved, err := p.resolveIndex(end)
	if err != nil {
		return Path{}, err
	}
	if resolved == 0 {
		return Path{start: p.start}, nil
	}
	return Path{start: p.start, edges: p.edges[:resolved:resolved]}, nil
}

// StartsWith reports whether other is a prefix of p: same start and its
// edges equal to the leading edges of p
func (p Path) StartsWith(other Path) bool {
	if len(other.edges) > len(p.edges) || other.start != p.start {
		return false
	}
	for i, edge := range other.edges {
		if edge != p.edges[i] {
			return false
		}
	}
	return true
}

// Append returns a new path with edge added at the end. The edge is not
// validated.
func (p Path) Append(edge Edge) Path {
	edges := make([]Edge, len(p.edges), len(p.edges)+1)
	copy(edges, p.edges)
	return Path{start: p.start, edges: append(edges, edge)}
}

// Extend returns a validating builder seeded with the path
func (p Path) Extend() *Builder {
	return NewBuilderFrom(p)
}

// WithToOneProperty returns the path extended by a to-one edge
func (p Path) WithToOneProperty(property string) (Path, error) {
	return p.Extend().AddToOneProperty(property).Build()
}

// WithToManyPropertyValueAtIndex returns the path extended by an index edge
func (p Path) WithToManyPropertyValueAtIndex(property string, index int) (Path, error) {
	return p.Extend().AddToManyPropertyValueAtIndex(property, index).Build()
}

// WithToManyPropertyValueWithName returns the path extended by a key edge
// on the name property
func (p Path) WithToManyPropertyValueWithName(property, name string) (Path, error) {
	return p.Extend().AddToManyPropertyValueWithName(property, name).Build()
}

// WithToManyPropertyValueWithKey returns the path extended by a key edge
func (p Path) WithToManyPropertyValueWithKey(property, keyProperty, key string) (Path, error) {
	return p.Extend().AddToManyPropertyValueWithKey(property, keyProperty, key).Build()
}

// partialDescription describes the path up to and including edge index
func (p Path) partialDescription(index int) string {
	var sb strings.Builder
	writeDescription(&sb, p.start, p.edges[:index+1])
	return sb.String()
}
