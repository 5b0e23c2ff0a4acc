package graphpath

import (
	"strconv"

	"git.canoozie.net/riddling/graphpath/pkg/common"
)

// Builder accumulates a start path and edges. A validating builder checks
// each piece as it is added and records the first failure; later calls are
// no-ops and Build returns that error. A non-validating builder accepts its
// input as-is and is meant for values already known to be well formed.
type Builder struct {
	start    string
	hasStart bool
	edges    []Edge
	validate bool
	err      error
}

// NewBuilder returns an empty validating builder
func NewBuilder() *Builder {
	return &Builder{validate: true}
}

// NewUncheckedBuilder returns an empty non-validating builder
func NewUncheckedBuilder() *Builder {
	return &Builder{}
}

// NewBuilderFrom returns a validating builder seeded with path
func NewBuilderFrom(path Path) *Builder {
	return &Builder{
		start:    path.start,
		hasStart: true,
		edges:    path.Edges(),
		validate: true,
	}
}

// BuilderFor returns a validating builder with the given start path
func BuilderFor(start string) *Builder {
	return NewBuilder().WithStart(start)
}

// BuildPath builds a path of to-one edges in validating mode
func BuildPath(start string, toOneProperties ...string) (Path, error) {
	return BuilderFor(start).AddToOneProperties(toOneProperties...).Build()
}

// Err returns the first validation failure, if any
func (b *Builder) Err() error {
	return b.err
}

// Start returns the start path set so far
func (b *Builder) Start() string {
	return b.start
}

func (b *Builder) reject(what, value string) *Builder {
	b.err = &ConstructionError{What: what, Value: value}
	return b
}

// WithStart sets the start node path
func (b *Builder) WithStart(start string) *Builder {
	if b.err != nil {
		return b
	}
	if b.validate && !validStart(start) {
		return b.reject("start node path", start)
	}
	b.start = start
	b.hasStart = true
	return b
}

func (b *Builder) property(property string) (string, bool) {
	if !b.validate {
		return property, true
	}
	name, ok := validPropertyName(property)
	if !ok {
		b.reject("property name", property)
	}
	return name, ok
}

// AddToOneProperty appends a to-one edge
func (b *Builder) AddToOneProperty(property string) *Builder {
	if b.err != nil {
		return b
	}
	name, ok := b.property(property)
	if !ok {
		return b
	}
	return b.AddEdge(ToOnePropertyEdge{property: name})
}

// AddToOneProperties appends a to-one edge per property
func (b *Builder) AddToOneProperties(properties ...string) *Builder {
	for _, property := range properties {
		b.AddToOneProperty(property)
	}
	return b
}

// AddToManyPropertyValueAtIndex appends an edge selecting a value by position
func (b *Builder) AddToManyPropertyValueAtIndex(property string, index int) *Builder {
	if b.err != nil {
		return b
	}
	name, ok := b.property(property)
	if !ok {
		return b
	}
	if b.validate && index < 0 {
		return b.reject("index", strconv.Itoa(index))
	}
	return b.AddEdge(ToManyPropertyAtIndexEdge{property: name, index: index})
}

// AddToManyPropertyValueWithName appends an edge selecting a value by name
func (b *Builder) AddToManyPropertyValueWithName(property, name string) *Builder {
	return b.AddToManyPropertyValueWithKey(property, DefaultKeyProperty, name)
}

// AddToManyPropertyValueWithKey appends an edge selecting the value whose
// keyProperty equals key
func (b *Builder) AddToManyPropertyValueWithKey(property, keyProperty, key string) *Builder {
	if b.err != nil {
		return b
	}
	name, ok := b.property(property)
	if !ok {
		return b
	}
	// The description grammar only allows a plain segment before '='
	if b.validate && !common.IsIdentifier(keyProperty) {
		return b.reject("key property name", keyProperty)
	}
	return b.AddEdge(ToManyPropertyWithKeyEdge{property: name, keyProperty: keyProperty, key: key})
}

// AddEdge appends an already constructed edge
func (b *Builder) AddEdge(edge Edge) *Builder {
	if b.err != nil {
		return b
	}
	if b.validate {
		if edge.Property() == "" {
			return b.reject("property name", "")
		}
		switch e := edge.(type) {
		case ToManyPropertyAtIndexEdge:
			if e.index < 0 {
				return b.reject("index", strconv.Itoa(e.index))
			}
		case ToManyPropertyWithKeyEdge:
			if !common.IsIdentifier(e.keyProperty) {
				return b.reject("key property name", e.keyProperty)
			}
		}
	}
	b.edges = append(b.edges, edge)
	return b
}

// FromDescription replaces the builder contents with a parsed description
func (b *Builder) FromDescription(description string) *Builder {
	if b.err != nil {
		return b
	}
	path, err := Parse(description)
	if err != nil {
		b.err = err
		return b
	}
	b.start = path.start
	b.hasStart = true
	b.edges = path.edges
	return b
}

// Description describes the path built so far
func (b *Builder) Description() string {
	return Path{start: b.start, edges: b.edges}.Description()
}

// Build returns the path, or the first validation failure
func (b *Builder) Build() (Path, error) {
	if b.err != nil {
		return Path{}, b.err
	}
	if !b.hasStart {
		return Path{}, errMissingStart
	}
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)
	return Path{start: b.start, edges: edges}, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() Path {
	path, err := b.Build()
	if err != nil {
		panic(err)
	}
	return path
}

var errMissingStart = &ConstructionError{What: "start node path", Value: ""}
