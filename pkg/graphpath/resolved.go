package graphpath

import (
	"fmt"
	"strings"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// ResolvedPath pairs a path with the nodes it visits. Node i is reached
// after applying the first i edges, so there is always one more node than
// edges.
type ResolvedPath struct {
	path  Path
	nodes []model.Node
}

// NewResolvedPath pairs path with nodes; len(nodes) must be path.NodeCount()
func NewResolvedPath(path Path, nodes []model.Node) (ResolvedPath, error) {
	if len(nodes) != path.NodeCount() {
		return ResolvedPath{}, fmt.Errorf("path %s visits %d nodes, got %d", path.Description(), path.NodeCount(), len(nodes))
	}
	copied := make([]model.Node, len(nodes))
	copy(copied, nodes)
	return ResolvedPath{path: path, nodes: copied}, nil
}

// Path returns the underlying path
func (r ResolvedPath) Path() Path {
	return r.path
}

// Nodes returns a copy of the visited nodes
func (r ResolvedPath) Nodes() []model.Node {
	nodes := make([]model.Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// Node returns the node at position i
func (r ResolvedPath) Node(i int) model.Node {
	return r.nodes[i]
}

// NodeCount returns the number of visited nodes
func (r ResolvedPath) NodeCount() int {
	return len(r.nodes)
}

// LastNode returns the node the path leads to
func (r ResolvedPath) LastNode() model.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[len(r.nodes)-1]
}

// Contains reports whether node is one of the visited nodes
func (r ResolvedPath) Contains(node model.Node) bool {
	for _, n := range r.nodes {
		if n == node {
			return true
		}
	}
	return false
}

// StartsWith reports whether other's path is a prefix of r's path and it
// visits the same nodes
func (r ResolvedPath) StartsWith(other ResolvedPath) bool {
	if !r.path.StartsWith(other.path) || len(other.nodes) > len(r.nodes) {
		return false
	}
	for i, node := range other.nodes {
		if r.nodes[i] != node {
			return false
		}
	}
	return true
}

// Extend returns a resolved path one edge longer. The receiver is not
// modified.
func (r ResolvedPath) Extend(edge Edge, node model.Node) ResolvedPath {
	nodes := make([]model.Node, len(r.nodes), len(r.nodes)+1)
	copy(nodes, r.nodes)
	return ResolvedPath{path: r.path.Append(edge), nodes: append(nodes, node)}
}

// Equal compares paths structurally and nodes by identity
func (r ResolvedPath) Equal(other ResolvedPath) bool {
	return len(r.nodes) == len(other.nodes) && r.StartsWith(other)
}

// Key returns the structural key of the path
func (r ResolvedPath) Key() string {
	return r.path.Key()
}

// Hash returns the structural hash of the path
func (r ResolvedPath) Hash() uint64 {
	return r.path.Hash()
}

func (r ResolvedPath) String() string {
	var sb strings.Builder
	sb.WriteString(r.path.Description())
	sb.WriteString(" [")
	for i, node := range r.nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(describeNode(node))
	}
	sb.WriteByte(']')
	return sb.String()
}
