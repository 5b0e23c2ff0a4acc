package graphpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"git.canoozie.net/riddling/graphpath/pkg/common"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// DefaultKeyProperty is the key property used when none is given
const DefaultKeyProperty = model.PropertyName

// Edge is one addressing step over a property of a node. The set of
// implementations is closed: ToOnePropertyEdge, ToManyPropertyAtIndexEdge
// and ToManyPropertyWithKeyEdge. Edges are plain comparable values, so ==
// is structural equality.
type Edge interface {
	// Property returns the name of the property the edge steps over
	Property() string
	// Apply steps from node over the edge
	Apply(node model.Node) (model.Node, error)

	writeDescription(sb *strings.Builder)
	writeExpression(sb *strings.Builder)
	writeHash(d *xxhash.Digest)
	sealed()
}

// ToOnePropertyEdge steps to the single value of a property
type ToOnePropertyEdge struct {
	property string
}

// ToManyPropertyAtIndexEdge steps to the value at a position of a to-many property
type ToManyPropertyAtIndexEdge struct {
	property string
	index    int
}

// ToManyPropertyWithKeyEdge steps to the value of a to-many property whose
// key property equals a key
type ToManyPropertyWithKeyEdge struct {
	property    string
	keyProperty string
	key         string
}

// NewToOnePropertyEdge creates an edge without validating the property name
func NewToOnePropertyEdge(property string) ToOnePropertyEdge {
	return ToOnePropertyEdge{property: property}
}

// NewToManyPropertyAtIndexEdge creates an edge without validating its fields
func NewToManyPropertyAtIndexEdge(property string, index int) ToManyPropertyAtIndexEdge {
	return ToManyPropertyAtIndexEdge{property: property, index: index}
}

// NewToManyPropertyWithKeyEdge creates an edge without validating its fields
func NewToManyPropertyWithKeyEdge(property, keyProperty, key string) ToManyPropertyWithKeyEdge {
	return ToManyPropertyWithKeyEdge{property: property, keyProperty: keyProperty, key: key}
}

func (e ToOnePropertyEdge) Property() string         { return e.property }
func (e ToManyPropertyAtIndexEdge) Property() string { return e.property }
func (e ToManyPropertyWithKeyEdge) Property() string { return e.property }

// Index returns the position the edge selects
func (e ToManyPropertyAtIndexEdge) Index() int { return e.index }

// KeyProperty returns the property compared against the key
func (e ToManyPropertyWithKeyEdge) KeyProperty() string { return e.keyProperty }

// Key returns the key value the edge selects
func (e ToManyPropertyWithKeyEdge) Key() string { return e.key }

func (ToOnePropertyEdge) sealed()         {}
func (ToManyPropertyAtIndexEdge) sealed() {}
func (ToManyPropertyWithKeyEdge) sealed() {}

// Apply implements Edge
func (e ToOnePropertyEdge) Apply(node model.Node) (model.Node, error) {
	value, err := node.ToOne(e.property)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("could not find '%s': %w", e.property, ErrValueNotFound)
	}
	return value, nil
}

// Apply implements Edge
func (e ToManyPropertyAtIndexEdge) Apply(node model.Node) (model.Node, error) {
	values := node.ToMany(e.property)
	if e.index < 0 || e.index >= len(values) {
		return nil, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, e.index, len(values))
	}
	return values[e.index], nil
}

// Apply implements Edge
func (e ToManyPropertyWithKeyEdge) Apply(node model.Node) (model.Node, error) {
	var found model.Node
	matches := 0
	for _, value := range node.ToMany(e.property) {
		if key, ok := keyValue(value, e.keyProperty); ok && key == e.key {
			if matches == 0 {
				found = value
			}
			matches++
		}
	}
	switch matches {
	case 0:
		return nil, fmt.Errorf("no value of '%s' with %s '%s': %w", e.property, e.keyProperty, common.Escape(e.key), ErrValueNotFound)
	case 1:
		return found, nil
	default:
		return nil, fmt.Errorf("%w: %d values of '%s' with %s '%s'", ErrAmbiguousKey, matches, e.property, e.keyProperty, common.Escape(e.key))
	}
}

// keyValue reads the key of a candidate node. The name key falls back to
// the node's own name when it has no name property.
func keyValue(node model.Node, keyProperty string) (string, bool) {
	keyNode, err := node.ToOne(keyProperty)
	if err == nil && keyNode != nil {
		return keyNode.Name(), true
	}
	if keyProperty == model.PropertyName && err == nil {
		return node.Name(), node.Name() != ""
	}
	return "", false
}

func writePropertyName(sb *strings.Builder, property string) {
	if common.IsIdentifier(property) {
		sb.WriteString(property)
		return
	}
	sb.WriteByte('\'')
	common.WriteEscaped(sb, property)
	sb.WriteByte('\'')
}

func (e ToOnePropertyEdge) writeDescription(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
}

func (e ToManyPropertyAtIndexEdge) writeDescription(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
	sb.WriteByte('[')
	sb.WriteString(strconv.Itoa(e.index))
	sb.WriteByte(']')
}

func (e ToManyPropertyWithKeyEdge) writeDescription(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
	sb.WriteByte('[')
	if e.keyProperty != DefaultKeyProperty {
		writePropertyName(sb, e.keyProperty)
		sb.WriteByte('=')
	}
	sb.WriteByte('\'')
	common.WriteEscaped(sb, e.key)
	sb.WriteString("']")
}

func (e ToOnePropertyEdge) writeExpression(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
}

func (e ToManyPropertyAtIndexEdge) writeExpression(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
	sb.WriteString("->at(")
	sb.WriteString(strconv.Itoa(e.index))
	sb.WriteByte(')')
}

func (e ToManyPropertyWithKeyEdge) writeExpression(sb *strings.Builder) {
	sb.WriteByte('.')
	writePropertyName(sb, e.property)
	sb.WriteString("->find(x | $x.")
	writePropertyName(sb, e.keyProperty)
	sb.WriteString(" == '")
	common.WriteEscaped(sb, e.key)
	sb.WriteString("')->toOne()")
}

func (e ToOnePropertyEdge) writeHash(d *xxhash.Digest) {
	d.WriteString("1")
	d.WriteString(e.property)
	d.WriteString("\x00")
}

func (e ToManyPropertyAtIndexEdge) writeHash(d *xxhash.Digest) {
	d.WriteString("2")
	d.WriteString(e.property)
	d.WriteString("\x00")
	d.WriteString(strconv.Itoa(e.index))
	d.WriteString("\x00")
}

func (e ToManyPropertyWithKeyEdge) writeHash(d *xxhash.Digest) {
	d.WriteString("3")
	d.WriteString(e.property)
	d.WriteString("\x00")
	d.WriteString(e.keyProperty)
	d.WriteString("\x00")
	d.WriteString(e.key)
	d.WriteString("\x00")
}

func (e ToOnePropertyEdge) String() string {
	return edgeString("ToOnePropertyEdge", e)
}

func (e ToManyPropertyAtIndexEdge) String() string {
	return edgeString("ToManyPropertyAtIndexEdge", e)
}

func (e ToManyPropertyWithKeyEdge) String() string {
	return edgeString("ToManyPropertyWithKeyEdge", e)
}

func edgeString(kind string, e Edge) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(kind)
	sb.WriteByte(' ')
	e.writeDescription(&sb)
	sb.WriteByte('>')
	return sb.String()
}

// EdgeVisitor dispatches over the three edge kinds
type EdgeVisitor[T any] interface {
	VisitToOneProperty(edge ToOnePropertyEdge) T
	VisitToManyPropertyAtIndex(edge ToManyPropertyAtIndexEdge) T
	VisitToManyPropertyWithKey(edge ToManyPropertyWithKeyEdge) T
}

// VisitEdge calls the visitor method matching the kind of edge
func VisitEdge[T any](edge Edge, visitor EdgeVisitor[T]) T {
	switch e := edge.(type) {
	case ToOnePropertyEdge:
		return visitor.VisitToOneProperty(e)
	case ToManyPropertyAtIndexEdge:
		return visitor.VisitToManyPropertyAtIndex(e)
	case ToManyPropertyWithKeyEdge:
		return visitor.VisitToManyPropertyWithKey(e)
	default:
		// Edge is sealed, so this is unreachable
		panic(fmt.Sprintf("unknown edge type %T", edge))
	}
}
