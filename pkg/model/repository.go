package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"git.canoozie.net/riddling/graphpath/pkg/common"
)

// Well-known property and label names of the namespace model
const (
	PropertyPackage  = "package"
	PropertyChildren = "children"
	PropertyName     = "name"

	LabelPackage = "Package"
	RootName     = "Root"
)

// Repository is the root namespace of a graph. It resolves element paths
// ("a::b::C", "::" or a top-level name) to nodes and decides which nodes have
// a stable global address.
//
// A repository is built single-threaded and then read; reads are safe for
// concurrent use.
type Repository struct {
	mu       sync.RWMutex
	root     *Instance
	topLevel map[string]Node
	elements *btree.Map[string, Node]
	nextID   uint64
}

// NewRepository creates a repository holding only the root package
func NewRepository() *Repository {
	root := NewInstance(0, LabelPackage, RootName)
	r := &Repository{
		root:     root,
		topLevel: map[string]Node{RootName: root},
		elements: btree.NewMap[string, Node](32),
		nextID:   1,
	}
	return r
}

// Root returns the root package
func (r *Repository) Root() *Instance {
	return r.root
}

// NextID reserves and returns a fresh node ID
func (r *Repository) NextID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

// reserveIDs makes sure NextID never hands out an ID at or below max
func (r *Repository) reserveIDs(max uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nextID <= max {
		r.nextID = max + 1
	}
}

// AddTopLevel registers a node that is addressable by its bare name
func (r *Repository) AddTopLevel(node Node) error {
	name := node.Name()
	if !common.IsIdentifier(name) {
		return ErrInvalidElementPath{Path: name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.topLevel[name]; exists {
		return fmt.Errorf("%w: top-level %s", ErrDuplicateElement, name)
	}
	r.topLevel[name] = node
	return nil
}

// Package returns the package at path, creating it and any missing parents
func (r *Repository) Package(path string) (*Instance, error) {
	if path == "" || path == common.RootPath {
		return r.root, nil
	}
	if !common.IsElementPath(path) {
		return nil, ErrInvalidElementPath{Path: path}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.root
	currentPath := ""
	for _, segment := range strings.Split(path, common.PackageSeparator) {
		currentPath = common.JoinElementPath(currentPath, segment)
		if existing, ok := r.elements.Get(currentPath); ok {
			pkg, isInstance := existing.(*Instance)
			if !isInstance || pkg.Label != LabelPackage {
				return nil, fmt.Errorf("%w: %s is not a package", ErrDuplicateElement, currentPath)
			}
			current = pkg
			continue
		}
		pkg := NewInstance(r.nextID, LabelPackage, segment)
		r.nextID++
		pkg.SetValue(PropertyPackage, current)
		current.AddValues(PropertyChildren, pkg)
		r.elements.Set(currentPath, pkg)
		current = pkg
	}
	return current, nil
}

// Define places node in the package at pkgPath, linking it both ways
func (r *Repository) Define(pkgPath string, node *Instance) error {
	if !common.IsIdentifier(node.Name()) {
		return ErrInvalidElementPath{Path: node.Name()}
	}
	pkg, err := r.Package(pkgPath)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	path := common.JoinElementPath(pkgPath, node.Name())
	if _, exists := r.elements.Get(path); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateElement, path)
	}
	node.SetValue(PropertyPackage, pkg)
	pkg.AddValues(PropertyChildren, node)
	r.elements.Set(path, node)
	return nil
}

// Resolve returns the node at an element path, or nil if there is none
func (r *Repository) Resolve(path string) Node {
	if path == common.RootPath {
		return r.root
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if node, ok := r.topLevel[path]; ok {
		return node
	}
	if node, ok := r.elements.Get(path); ok {
		return node
	}
	return nil
}

// Elements lists the element paths starting with prefix, in order
func (r *Repository) Elements(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var paths []string
	r.elements.Ascend(prefix, func(path string, _ Node) bool {
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		paths = append(paths, path)
		return true
	})
	return paths
}

// IsTopLevel reports whether node is registered under its bare name
func (r *Repository) IsTopLevel(node Node) bool {
	if node == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	top, ok := r.topLevel[node.Name()]
	return ok && top == node
}

// IsPackaged reports whether node has an enclosing package
func (r *Repository) IsPackaged(node Node) bool {
	if node == nil {
		return false
	}
	pkg, err := node.ToOne(PropertyPackage)
	return err == nil && pkg != nil
}

// IsAddressable reports whether node has a stable global address
func (r *Repository) IsAddressable(node Node) bool {
	return r.IsPackaged(node) || r.IsTopLevel(node)
}

// AddressOf returns the element path under which node can be resolved
func (r *Repository) AddressOf(node Node) (string, error) {
	if node == Node(r.root) {
		return common.RootPath, nil
	}
	if r.IsPackaged(node) {
		pkg, _ := node.ToOne(PropertyPackage)
		if pkg == Node(r.root) {
			return node.Name(), nil
		}
		pkgPath, err := r.AddressOf(pkg)
		if err != nil {
			return "", err
		}
		return common.JoinElementPath(pkgPath, node.Name()), nil
	}
	if r.IsTopLevel(node) {
		return node.Name(), nil
	}
	return "", ErrNotAddressable{Node: node}
}
