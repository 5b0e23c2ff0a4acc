package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateElement is returned when an element is defined twice at the same path
var ErrDuplicateElement = errors.New("duplicate element")

// ErrInvalidDocument is returned when a graph document cannot be turned into a repository
var ErrInvalidDocument = errors.New("invalid graph document")

// ErrInvalidNodeID is returned when a document references an unknown node ID
type ErrInvalidNodeID struct {
	ID uint64
}

func (e ErrInvalidNodeID) Error() string {
	return fmt.Sprintf("invalid node ID: %d", e.ID)
}

// ErrInvalidElementPath is returned when a package or element path is malformed
type ErrInvalidElementPath struct {
	Path string
}

func (e ErrInvalidElementPath) Error() string {
	return fmt.Sprintf("invalid element path: %q", e.Path)
}

// ErrNotToOne is returned when a to-one value is requested from a property holding several values
type ErrNotToOne struct {
	Key   string
	Count int
}

func (e ErrNotToOne) Error() string {
	return fmt.Sprintf("property %s has %d values, expected at most one", e.Key, e.Count)
}

// ErrNotAddressable is returned when an address is requested for a node that has none
type ErrNotAddressable struct {
	Node Node
}

func (e ErrNotAddressable) Error() string {
	return fmt.Sprintf("node is not addressable: %v", e.Node)
}
