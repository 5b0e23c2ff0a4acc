package query

import (
	"fmt"
	"iter"
	"math"

	"github.com/gammazero/deque"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Enumerator lists the resolved paths reachable from a set of seed paths,
// breadth first. Seeds are expanded but never emitted, and a path never
// visits the same node twice. An Enumerator is immutable; every call to
// Iterator starts a fresh traversal.
type Enumerator struct {
	seeds      []graphpath.ResolvedPath
	seedSet    seedSet
	filter     Filter
	properties PropertyFilter
	logger     model.Logger
}

// NewEnumerator creates an enumerator over seeds. Duplicate seeds are
// dropped. filter and properties may be nil.
func NewEnumerator(seeds []graphpath.ResolvedPath, filter Filter, properties PropertyFilter) *Enumerator {
	e := &Enumerator{
		seedSet:    make(seedSet, len(seeds)),
		filter:     filter,
		properties: properties,
		logger:     model.DefaultLoggerInstance,
	}
	for _, seed := range seeds {
		if e.seedSet.add(seed) {
			e.seeds = append(e.seeds, seed)
		}
	}
	return e
}

// seedSet holds resolved paths by structural hash. Members are equal when
// their paths are structurally equal and their nodes are identical.
type seedSet map[uint64][]graphpath.ResolvedPath

func (s seedSet) contains(path graphpath.ResolvedPath) bool {
	for _, seed := range s[path.Hash()] {
		if seed.Equal(path) {
			return true
		}
	}
	return false
}

// add reports whether path was not already present
func (s seedSet) add(path graphpath.ResolvedPath) bool {
	if s.contains(path) {
		return false
	}
	h := path.Hash()
	s[h] = append(s[h], path)
	return true
}

// Seeds returns the distinct seed paths
func (e *Enumerator) Seeds() []graphpath.ResolvedPath {
	seeds := make([]graphpath.ResolvedPath, len(e.seeds))
	copy(seeds, e.seeds)
	return seeds
}

// Iterator starts a traversal
func (e *Enumerator) Iterator() *PathIterator {
	it := &PathIterator{
		seedSet:    e.seedSet,
		filter:     e.filter,
		properties: e.properties,
	}
	for _, seed := range e.seeds {
		it.frontier.PushBack(frontierEntry{path: seed, seed: true})
	}
	return it
}

// All returns the emitted paths as a sequence
func (e *Enumerator) All() iter.Seq[graphpath.ResolvedPath] {
	return e.Iterator().All()
}

// Collect runs the traversal to completion
func (e *Enumerator) Collect() []graphpath.ResolvedPath {
	var paths []graphpath.ResolvedPath
	for path := range e.All() {
		paths = append(paths, path)
	}
	e.logger.Debug("Enumerated %d paths from %d seeds", len(paths), len(e.seeds))
	return paths
}

// IsEmpty reports whether the traversal emits nothing
func (e *Enumerator) IsEmpty() bool {
	_, ok := e.Iterator().Next()
	return !ok
}

// First returns the first emitted path
func (e *Enumerator) First() (graphpath.ResolvedPath, bool) {
	return e.Iterator().Next()
}

// Contains reports whether target would be emitted. Only seeds that are a
// prefix of target are searched, and candidates that leave target are
// dropped as soon as they diverge.
func (e *Enumerator) Contains(target graphpath.ResolvedPath) bool {
	var seeds []graphpath.ResolvedPath
	for _, seed := range e.seeds {
		if target.StartsWith(seed) {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return false
	}

	onTarget := func(path graphpath.ResolvedPath) Decision {
		if !target.StartsWith(path) {
			return RejectStop
		}
		return Defer
	}
	restricted := &Enumerator{
		seeds:      seeds,
		seedSet:    e.seedSet,
		filter:     Conjoin(onTarget, e.filter),
		properties: e.properties,
		logger:     e.logger,
	}
	for path := range restricted.All() {
		if path.Equal(target) {
			return true
		}
	}
	return false
}

type frontierEntry struct {
	path graphpath.ResolvedPath
	seed bool
}

// PathIterator is a pull-based traversal. It is not safe for concurrent
// use, but iterators produced by Split share no mutable state and may be
// driven from different goroutines.
type PathIterator struct {
	frontier   deque.Deque[frontierEntry]
	seedSet    seedSet
	filter     Filter
	properties PropertyFilter
}

// Next returns the next emitted path, or false once the frontier is empty
func (it *PathIterator) Next() (graphpath.ResolvedPath, bool) {
	for it.frontier.Len() > 0 {
		entry := it.frontier.PopFront()
		if entry.seed {
			it.expand(entry.path)
			continue
		}

		decision := AcceptContinue
		if it.filter != nil {
			decision = it.filter(entry.path)
		}
		if decision.Continues() {
			it.expand(entry.path)
		}
		if decision.Accepts() {
			pathsEmitted.Inc()
			return entry.path, true
		}
	}
	return graphpath.ResolvedPath{}, false
}

// All returns the remaining emitted paths as a sequence
func (it *PathIterator) All() iter.Seq[graphpath.ResolvedPath] {
	return func(yield func(graphpath.ResolvedPath) bool) {
		for {
			path, ok := it.Next()
			if !ok || !yield(path) {
				return
			}
		}
	}
}

// Split moves the back half of the frontier into a new iterator. It returns
// nil when the frontier holds fewer than two entries.
func (it *PathIterator) Split() *PathIterator {
	n := it.frontier.Len() / 2
	if n == 0 {
		return nil
	}
	other := &PathIterator{
		seedSet:    it.seedSet,
		filter:     it.filter,
		properties: it.properties,
	}
	for i := 0; i < n; i++ {
		other.frontier.PushFront(it.frontier.PopBack())
	}
	frontierSplits.Inc()
	return other
}

// EstimateSize is zero for an exhausted iterator and unbounded otherwise
func (it *PathIterator) EstimateSize() int64 {
	if it.frontier.Len() == 0 {
		return 0
	}
	return math.MaxInt64
}

// ExactSizeIfKnown is zero for an exhausted iterator and -1 otherwise
func (it *PathIterator) ExactSizeIfKnown() int64 {
	if it.frontier.Len() == 0 {
		return 0
	}
	return -1
}

// Pending returns the number of frontier entries not yet processed
func (it *PathIterator) Pending() int {
	return it.frontier.Len()
}

// expand pushes the children of path to the back of the frontier. A
// property with one value yields a to-one edge; a property with several
// yields one index edge per value.
func (it *PathIterator) expand(path graphpath.ResolvedPath) {
	node := path.LastNode()
	if node == nil {
		return
	}
	pathsExpanded.Inc()
	for _, property := range node.Keys() {
		if it.properties != nil && !it.properties(path, property) {
			continue
		}
		values := node.ToMany(property)
		switch len(values) {
		case 0:
		case 1:
			it.offer(path, graphpath.NewToOnePropertyEdge(property), values[0])
		default:
			for i, value := range values {
				it.offer(path, graphpath.NewToManyPropertyAtIndexEdge(property, i), value)
			}
		}
	}
}

func (it *PathIterator) offer(path graphpath.ResolvedPath, edge graphpath.Edge, node model.Node) {
	if node == nil {
		return
	}
	if path.Contains(node) {
		childrenDiscarded.WithLabelValues(discardCycle).Inc()
		return
	}
	child := path.Extend(edge, node)
	if it.seedSet.contains(child) {
		childrenDiscarded.WithLabelValues(discardSeed).Inc()
		return
	}
	it.frontier.PushBack(frontierEntry{path: child})
}

// EnumeratorBuilder assembles an Enumerator from seeds given in several
// forms. The first failure is recorded and returned by Build.
type EnumeratorBuilder struct {
	seeds      []graphpath.ResolvedPath
	filters    []Filter
	properties PropertyFilter
	logger     model.Logger
	err        error
}

// NewEnumeratorBuilder returns an empty builder
func NewEnumeratorBuilder() *EnumeratorBuilder {
	return &EnumeratorBuilder{logger: model.DefaultLoggerInstance}
}

// FromResolvedPaths adds already resolved seeds
func (b *EnumeratorBuilder) FromResolvedPaths(paths ...graphpath.ResolvedPath) *EnumeratorBuilder {
	b.seeds = append(b.seeds, paths...)
	return b
}

// FromPaths resolves and adds seeds
func (b *EnumeratorBuilder) FromPaths(resolver graphpath.Resolver, paths ...graphpath.Path) *EnumeratorBuilder {
	for _, path := range paths {
		if b.err != nil {
			return b
		}
		resolved, err := path.ResolveFully(resolver)
		if err != nil {
			b.err = fmt.Errorf("resolving seed %s: %w", path.Description(), err)
			return b
		}
		b.seeds = append(b.seeds, resolved)
	}
	return b
}

// FromDescriptions parses, resolves and adds seeds
func (b *EnumeratorBuilder) FromDescriptions(resolver graphpath.Resolver, descriptions ...string) *EnumeratorBuilder {
	for _, description := range descriptions {
		if b.err != nil {
			return b
		}
		path, err := graphpath.Parse(description)
		if err != nil {
			b.err = err
			return b
		}
		b.FromPaths(resolver, path)
	}
	return b
}

// FromNodes adds a zero-edge seed for each addressable node
func (b *EnumeratorBuilder) FromNodes(ns graphpath.Namespace, nodes ...model.Node) *EnumeratorBuilder {
	for _, node := range nodes {
		if b.err != nil {
			return b
		}
		address, err := ns.AddressOf(node)
		if err != nil {
			b.err = fmt.Errorf("%w: seed node: %v", graphpath.ErrInvalidConstruction, err)
			return b
		}
		path, err := graphpath.BuilderFor(address).Build()
		if err != nil {
			b.err = err
			return b
		}
		seed, err := graphpath.NewResolvedPath(path, []model.Node{node})
		if err != nil {
			b.err = err
			return b
		}
		b.seeds = append(b.seeds, seed)
	}
	return b
}

// WithFilter adds a filter; filters are conjoined in the order given
func (b *EnumeratorBuilder) WithFilter(filters ...Filter) *EnumeratorBuilder {
	b.filters = append(b.filters, filters...)
	return b
}

// WithPropertyFilter sets the property filter
func (b *EnumeratorBuilder) WithPropertyFilter(properties PropertyFilter) *EnumeratorBuilder {
	b.properties = properties
	return b
}

// WithLogger sets the logger
func (b *EnumeratorBuilder) WithLogger(logger model.Logger) *EnumeratorBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Build returns the enumerator or the first seed failure
func (b *EnumeratorBuilder) Build() (*Enumerator, error) {
	if b.err != nil {
		return nil, b.err
	}
	var filter Filter
	if len(b.filters) > 0 {
		filter = Conjoin(b.filters...)
	}
	e := NewEnumerator(b.seeds, filter, b.properties)
	e.logger = b.logger
	return e, nil
}
