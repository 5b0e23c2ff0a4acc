package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `
nodes:
  - id: 1
    label: Class
    name: ClassA
    package: test::domain
    source: {file: domain.pure, line: 3, column: 1}
    properties:
      - key: properties
        values: [2]
      - key: stereotypes
        literals: [a, b]
  - id: 2
    label: Property
    name: prop1
    properties:
      - key: owner
        values: [1]
  - id: 3
    label: PrimitiveType
    name: String
    toplevel: true
`

func TestDocumentBuild(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 3)

	repo, err := doc.Build()
	require.NoError(t, err)

	classA := repo.Resolve("test::domain::ClassA")
	require.NotNil(t, classA)
	assert.Equal(t, "domain.pure:3 c1", classA.SourceInformation().String())

	props := classA.ToMany("properties")
	require.Len(t, props, 1)
	assert.Equal(t, "prop1", props[0].Name())

	owner, err := props[0].ToOne("owner")
	require.NoError(t, err)
	assert.Same(t, classA, owner)

	literals := classA.ToMany("stereotypes")
	require.Len(t, literals, 2)
	assert.Equal(t, "a", literals[0].Name())
	assert.Equal(t, LiteralLabel, literals[1].(*Instance).Label)
	assert.Greater(t, literals[0].(*Instance).ID, uint64(3))

	assert.NotNil(t, repo.Resolve("String"))
	assert.Equal(t, []string{"test", "test::domain", "test::domain::ClassA"}, repo.Elements(""))
}

func TestDocumentRootReference(t *testing.T) {
	doc, err := ParseDocument([]byte("nodes: [{id: 1, label: Import, name: I, package: p, properties: [{key: target, values: [0]}]}]"))
	require.NoError(t, err)
	repo, err := doc.Build()
	require.NoError(t, err)

	imp := repo.Resolve("p::I")
	require.NotNil(t, imp)
	target, err := imp.ToOne("target")
	require.NoError(t, err)
	assert.Same(t, repo.Root(), target)
}

func TestDocumentBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Zero ID", "nodes: [{id: 0, label: Class}]"},
		{"Duplicate ID", "nodes: [{id: 1, label: Class}, {id: 1, label: Class}]"},
		{"Unknown reference", "nodes: [{id: 1, label: Class, properties: [{key: x, values: [9]}]}]"},
		{"Empty key", "nodes: [{id: 1, label: Class, properties: [{key: '', values: [1]}]}]"},
		{"Bad package", "nodes: [{id: 1, label: Class, name: A, package: 'a:::b'}]"},
		{"Duplicate element", "nodes: [{id: 1, label: Class, name: A, package: p}, {id: 2, label: Class, name: A, package: p}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = doc.Build()
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}

	_, err := ParseDocument([]byte("nodes: {"))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestLoadDocumentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o644))

	repo, err := LoadDocumentFile(path)
	require.NoError(t, err)
	assert.NotNil(t, repo.Resolve("test::domain::ClassA"))

	_, err = LoadDocumentFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
