package model

import "fmt"

// Node is a vertex of the metamodel graph. Implementations must be
// comparable by identity (pointer types), since traversal code keeps sets of
// visited nodes keyed by the Node value itself.
type Node interface {
	// Keys returns the names of the properties defined on the node, in a
	// stable order
	Keys() []string
	// ToOne returns the single value of a property, or nil if it has none
	ToOne(property string) (Node, error)
	// ToMany returns the ordered values of a property, possibly empty
	ToMany(property string) []Node
	// Name returns the display name of the node, or "" if it has none
	Name() string
	// SourceInformation returns where the node was defined, or nil
	SourceInformation() *SourceInformation
}

// Instance is the in-memory Node implementation used by repositories loaded
// from graph documents
type Instance struct {
	ID         uint64 // Unique identifier for the node within its document
	Label      string // Classifier of the node
	name       string
	source     *SourceInformation
	keys       []string
	properties map[string]*Property
}

// NewInstance creates a new Instance with the given ID, label and name
func NewInstance(id uint64, label, name string) *Instance {
	return &Instance{
		ID:         id,
		Label:      label,
		name:       name,
		properties: make(map[string]*Property),
	}
}

// NewPrimitive creates a primitive value node, e.g. a String literal. The
// literal is exposed as the node's name.
func NewPrimitive(id uint64, label, value string) *Instance {
	return NewInstance(id, label, value)
}

// AddValues appends values to a property, creating it if necessary
func (n *Instance) AddValues(key string, values ...Node) {
	prop, ok := n.properties[key]
	if !ok {
		prop = NewProperty(key)
		n.properties[key] = prop
		n.keys = append(n.keys, key)
	}
	prop.Values = append(prop.Values, values...)
}

// SetValue replaces the values of a property with a single value
func (n *Instance) SetValue(key string, value Node) {
	n.RemoveProperty(key)
	n.AddValues(key, value)
}

// GetProperty retrieves a property by key
func (n *Instance) GetProperty(key string) (*Property, bool) {
	prop, ok := n.properties[key]
	return prop, ok
}

// RemoveProperty removes a property from the node
func (n *Instance) RemoveProperty(key string) {
	if _, ok := n.properties[key]; !ok {
		return
	}
	delete(n.properties, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i:i], n.keys[i+1:]...)
			break
		}
	}
}

// SetSourceInformation records where the node was defined
func (n *Instance) SetSourceInformation(source *SourceInformation) {
	n.source = source
}

// Keys implements Node
func (n *Instance) Keys() []string {
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

// ToOne implements Node
func (n *Instance) ToOne(property string) (Node, error) {
	prop, ok := n.properties[property]
	if !ok || len(prop.Values) == 0 {
		return nil, nil
	}
	if len(prop.Values) > 1 {
		return nil, ErrNotToOne{Key: property, Count: len(prop.Values)}
	}
	return prop.Values[0], nil
}

// ToMany implements Node
func (n *Instance) ToMany(property string) []Node {
	prop, ok := n.properties[property]
	if !ok {
		return nil
	}
	values := make([]Node, len(prop.Values))
	copy(values, prop.Values)
	return values
}

// Name implements Node
func (n *Instance) Name() string {
	return n.name
}

// SourceInformation implements Node
func (n *Instance) SourceInformation() *SourceInformation {
	return n.source
}

func (n *Instance) String() string {
	if n.name == "" {
		return fmt.Sprintf("<%s #%d>", n.Label, n.ID)
	}
	return fmt.Sprintf("%s(%s)", n.name, n.Label)
}
