package graphpath

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// testGraph is a small metamodel:
//
//	test::domain::ClassA
//	  properties: [prop1, prop2]
//	    prop1.functionName = 'getProp1'
//	    prop2.genericType.rawType = test::domain::ClassB
//	A (top-level)
//	  children: [x, y]
type testGraph struct {
	repo        *model.Repository
	classA      *model.Instance
	classB      *model.Instance
	prop1       *model.Instance
	prop2       *model.Instance
	genericType *model.Instance
	a           *model.Instance
	x           *model.Instance
	y           *model.Instance
}

func newTestGraph(t *testing.T) *testGraph {
	t.Helper()
	repo := model.NewRepository()
	g := &testGraph{repo: repo}

	g.classA = model.NewInstance(repo.NextID(), "Class", "ClassA")
	g.classA.SetSourceInformation(&model.SourceInformation{SourceID: "domain.pure", Line: 3, Column: 1})
	g.classB = model.NewInstance(repo.NextID(), "Class", "ClassB")
	require.NoError(t, repo.Define("test::domain", g.classA))
	require.NoError(t, repo.Define("test::domain", g.classB))

	g.prop1 = model.NewInstance(repo.NextID(), "Property", "prop1")
	g.prop1.SetValue("functionName", model.NewPrimitive(repo.NextID(), model.LiteralLabel, "getProp1"))
	g.prop2 = model.NewInstance(repo.NextID(), "Property", "prop2")
	g.prop2.SetValue("functionName", model.NewPrimitive(repo.NextID(), model.LiteralLabel, "getProp2"))
	g.genericType = model.NewInstance(repo.NextID(), "GenericType", "")
	g.genericType.SetValue("rawType", g.classB)
	g.prop2.SetValue("genericType", g.genericType)
	g.classA.AddValues("properties", g.prop1, g.prop2)

	g.a = model.NewInstance(repo.NextID(), "Node", "A")
	g.x = model.NewInstance(repo.NextID(), "Node", "x")
	g.y = model.NewInstance(repo.NextID(), "Node", "y")
	g.a.AddValues("children", g.x, g.y)
	require.NoError(t, repo.AddTopLevel(g.a))
	return g
}
