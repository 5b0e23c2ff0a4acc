package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LiteralLabel is the label given to nodes created from document literals
const LiteralLabel = "String"

// Document is the YAML form of a graph. Node 0 always refers to the root
// package; document nodes must use IDs from 1 up.
//
//	nodes:
//	  - id: 1
//	    label: Class
//	    name: ClassA
//	    package: test::domain
//	    properties:
//	      - key: properties
//	        values: [2, 3]
type Document struct {
	Nodes []NodeDocument `yaml:"nodes"`
}

// NodeDocument describes one node of a Document
type NodeDocument struct {
	ID         uint64             `yaml:"id"`
	Label      string             `yaml:"label"`
	Name       string             `yaml:"name,omitempty"`
	Package    string             `yaml:"package,omitempty"`
	TopLevel   bool               `yaml:"toplevel,omitempty"`
	Source     *SourceInformation `yaml:"source,omitempty"`
	Properties []PropertyDocument `yaml:"properties,omitempty"`
}

// PropertyDocument lists the values of one property. Values reference
// other nodes by ID; literals become primitive String nodes.
type PropertyDocument struct {
	Key      string   `yaml:"key"`
	Values   []uint64 `yaml:"values,omitempty"`
	Literals []string `yaml:"literals,omitempty"`
}

// ParseDocument decodes a YAML graph document
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// LoadDocumentFile reads a YAML graph document and builds its repository
func LoadDocumentFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph document %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Build creates a Repository holding the document's nodes
func (d *Document) Build() (*Repository, error) {
	repo := NewRepository()
	nodes := map[uint64]*Instance{0: repo.Root()}

	// First pass: create every node so properties can reference forward
	var maxID uint64
	for _, nd := range d.Nodes {
		if nd.ID == 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, ErrInvalidNodeID{ID: nd.ID})
		}
		if _, exists := nodes[nd.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate node ID %d", ErrInvalidDocument, nd.ID)
		}
		node := NewInstance(nd.ID, nd.Label, nd.Name)
		node.SetSourceInformation(nd.Source)
		nodes[nd.ID] = node
		if nd.ID > maxID {
			maxID = nd.ID
		}
	}
	repo.reserveIDs(maxID)

	// Second pass: properties, then namespace placement
	for _, nd := range d.Nodes {
		node := nodes[nd.ID]
		for _, pd := range nd.Properties {
			if pd.Key == "" {
				return nil, fmt.Errorf("%w: node %d has a property without a key", ErrInvalidDocument, nd.ID)
			}
			values := make([]Node, 0, len(pd.Values)+len(pd.Literals))
			for _, id := range pd.Values {
				target, ok := nodes[id]
				if !ok {
					return nil, fmt.Errorf("%w: node %d property %s: %v", ErrInvalidDocument, nd.ID, pd.Key, ErrInvalidNodeID{ID: id})
				}
				values = append(values, target)
			}
			for _, literal := range pd.Literals {
				values = append(values, NewPrimitive(repo.NextID(), LiteralLabel, literal))
			}
			node.AddValues(pd.Key, values...)
		}
	}
	for _, nd := range d.Nodes {
		node := nodes[nd.ID]
		if nd.Package != "" {
			if err := repo.Define(nd.Package, node); err != nil {
				return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidDocument, nd.ID, err)
			}
		}
		if nd.TopLevel {
			if err := repo.AddTopLevel(node); err != nil {
				return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidDocument, nd.ID, err)
			}
		}
	}
	return repo, nil
}
