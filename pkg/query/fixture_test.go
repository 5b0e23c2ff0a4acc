package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// testGraph holds named nodes of a hand-built repository
type testGraph struct {
	repo  *model.Repository
	nodes map[string]*model.Instance
}

func newTestGraph() *testGraph {
	return &testGraph{repo: model.NewRepository(), nodes: make(map[string]*model.Instance)}
}

func (g *testGraph) node(name string) *model.Instance {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := model.NewInstance(g.repo.NextID(), "Node", name)
	g.nodes[name] = n
	return n
}

// link adds targets as the values of property on from
func (g *testGraph) link(from, property string, targets ...string) *testGraph {
	values := make([]model.Node, len(targets))
	for i, target := range targets {
		values[i] = g.node(target)
	}
	g.node(from).AddValues(property, values...)
	return g
}

func (g *testGraph) topLevel(t *testing.T, names ...string) *testGraph {
	t.Helper()
	for _, name := range names {
		require.NoError(t, g.repo.AddTopLevel(g.node(name)))
	}
	return g
}

func (g *testGraph) resolved(t *testing.T, description string) graphpath.ResolvedPath {
	t.Helper()
	path, err := graphpath.MustParse(description).ResolveFully(g.repo)
	require.NoError(t, err)
	return path
}

// branchingGraph is A.b -> B, B.items -> [C, D]
func branchingGraph(t *testing.T) *testGraph {
	return newTestGraph().
		link("A", "b", "B").
		link("B", "items", "C", "D").
		topLevel(t, "A")
}

// wideGraph is R.items -> [N0..N9], each Ni.leaf -> Li
func wideGraph(t *testing.T) *testGraph {
	g := newTestGraph()
	names := []string{"N0", "N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8", "N9"}
	g.link("R", "items", names...)
	for _, name := range names {
		g.link(name, "leaf", "L"+name)
	}
	return g.topLevel(t, "R")
}

// completeGraph links every node Ni to every other node through property
// "to", so the number of simple paths grows factorially with n
func completeGraph(t *testing.T, n int) *testGraph {
	g := newTestGraph()
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("N%d", i)
	}
	for _, from := range names {
		var targets []string
		for _, to := range names {
			if to != from {
				targets = append(targets, to)
			}
		}
		g.link(from, "to", targets...)
	}
	return g.topLevel(t, names[0])
}

func pathKeys(paths []graphpath.ResolvedPath) []string {
	keys := make([]string, len(paths))
	for i, path := range paths {
		keys[i] = path.Key()
	}
	return keys
}

func drain(it *PathIterator) []graphpath.ResolvedPath {
	var paths []graphpath.ResolvedPath
	for path := range it.All() {
		paths = append(paths, path)
	}
	return paths
}
