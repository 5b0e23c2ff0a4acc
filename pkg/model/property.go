package model

// Property is a named, ordered list of values on an Instance
type Property struct {
	Key    string // The property name
	Values []Node // The property values, in definition order
}

// NewProperty creates a new, empty Property with the given key
func NewProperty(key string, values ...Node) *Property {
	return &Property{
		Key:    key,
		Values: values,
	}
}

// GetKey returns the property's key
func (p *Property) GetKey() string {
	return p.Key
}

// Len returns the number of values
func (p *Property) Len() int {
	return len(p.Values)
}

// IsToOne reports whether the property holds exactly one value
func (p *Property) IsToOne() bool {
	return len(p.Values) == 1
}
