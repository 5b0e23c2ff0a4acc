package graphpath

import (
	"errors"
	"fmt"
	"strings"

	"git.canoozie.net/riddling/graphpath/pkg/common"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Error classes. Every error returned by this package matches exactly one
// of the first four with errors.Is.
var (
	ErrMalformedSyntax     = errors.New("malformed path syntax")
	ErrInvalidConstruction = errors.New("invalid path construction")
	ErrUnresolvableStart   = errors.New("unresolvable start node")
	ErrBrokenEdge          = errors.New("broken edge")
)

// Causes carried by a BrokenEdgeError
var (
	ErrValueNotFound   = errors.New("not found")
	ErrAmbiguousKey    = errors.New("ambiguous key")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// SyntaxError reports a description that does not follow the path grammar
type SyntaxError struct {
	Input  string
	Index  int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path description '%s': %s at index %d", common.Escape(e.Input), e.Reason, e.Index)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformedSyntax
}

// ConstructionError reports a value rejected by a validating Builder
type ConstructionError struct {
	What  string // "start node path", "property name", "key property name", "index"
	Value string
}

func (e *ConstructionError) Error() string {
	if e.What == "index" {
		return fmt.Sprintf("index must be non-negative: %s", e.Value)
	}
	return fmt.Sprintf("invalid %s '%s'", e.What, common.Escape(e.Value))
}

func (e *ConstructionError) Unwrap() error {
	return ErrInvalidConstruction
}

// UnresolvableStartError reports a start path the resolver does not know
type UnresolvableStartError struct {
	Start string
}

func (e *UnresolvableStartError) Error() string {
	return fmt.Sprintf("could not find %s", e.Start)
}

func (e *UnresolvableStartError) Unwrap() error {
	return ErrUnresolvableStart
}

// BrokenEdgeError reports an edge that could not be applied while resolving
// a path. Partial is the description of the path up to and including the
// failing edge; Final is the last node that resolved successfully.
type BrokenEdgeError struct {
	Partial string
	Final   model.Node
	Err     error
}

func (e *BrokenEdgeError) Error() string {
	var sb strings.Builder
	sb.WriteString("error accessing ")
	sb.WriteString(e.Partial)
	if e.Final != nil {
		sb.WriteString(" (final node: ")
		sb.WriteString(describeNode(e.Final))
		if source := e.Final.SourceInformation(); source != nil {
			sb.WriteString(" at ")
			sb.WriteString(source.String())
		}
		sb.WriteByte(')')
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *BrokenEdgeError) Unwrap() []error {
	return []error{ErrBrokenEdge, e.Err}
}

// Source returns the source location of the last resolved node, if known
func (e *BrokenEdgeError) Source() *model.SourceInformation {
	if e.Final == nil {
		return nil
	}
	return e.Final.SourceInformation()
}

func describeNode(node model.Node) string {
	if s, ok := node.(fmt.Stringer); ok {
		return s.String()
	}
	if name := node.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("%T", node)
}
