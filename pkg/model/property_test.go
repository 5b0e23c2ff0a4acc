package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProperty(t *testing.T) {
	a := NewInstance(1, "Class", "A")
	b := NewInstance(2, "Class", "B")

	empty := NewProperty("values")
	assert.Equal(t, "values", empty.GetKey())
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.IsToOne())

	one := NewProperty("values", a)
	assert.Equal(t, 1, one.Len())
	assert.True(t, one.IsToOne())

	many := NewProperty("values", a, b)
	assert.Equal(t, 2, many.Len())
	assert.False(t, many.IsToOne())
	assert.Equal(t, []Node{a, b}, many.Values)
}
