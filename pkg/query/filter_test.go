package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

func constant(d Decision) Filter {
	return func(graphpath.ResolvedPath) Decision { return d }
}

func TestDecisionBits(t *testing.T) {
	tests := []struct {
		decision     Decision
		wantAccept   bool
		wantContinue bool
	}{
		{Defer, true, true},
		{AcceptContinue, true, true},
		{AcceptStop, true, false},
		{RejectContinue, false, true},
		{RejectStop, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.decision.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantAccept, tt.decision.Accepts())
			assert.Equal(t, tt.wantContinue, tt.decision.Continues())
		})
	}
}

func TestConjoin(t *testing.T) {
	tests := []struct {
		name    string
		filters []Filter
		want    Decision
	}{
		{"No filters", nil, Defer},
		{"All defer", []Filter{constant(Defer), constant(Defer)}, Defer},
		{"Single filter", []Filter{constant(AcceptStop)}, AcceptStop},
		{"Nil filters skipped", []Filter{nil, constant(RejectContinue), nil}, RejectContinue},
		{"Stop wins continue", []Filter{constant(AcceptContinue), constant(AcceptStop)}, AcceptStop},
		{"Reject wins accept", []Filter{constant(AcceptContinue), constant(RejectContinue)}, RejectContinue},
		{"Reject and stop combine", []Filter{constant(RejectContinue), constant(AcceptStop)}, RejectStop},
		{"Defer adds no opinion", []Filter{constant(Defer), constant(AcceptStop), constant(Defer)}, AcceptStop},
		{"Accept after reject still rejects", []Filter{constant(RejectContinue), constant(AcceptContinue)}, RejectContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conjoin(tt.filters...)(graphpath.ResolvedPath{}))
		})
	}
}

func TestConjoinShortCircuitsRejectStop(t *testing.T) {
	called := false
	later := func(graphpath.ResolvedPath) Decision {
		called = true
		return AcceptContinue
	}
	assert.Equal(t, RejectStop, Conjoin(constant(AcceptContinue), constant(RejectStop), later)(graphpath.ResolvedPath{}))
	assert.False(t, called)
}

func TestMaxPathLength(t *testing.T) {
	g := branchingGraph(t)
	filter := MaxPathLength(1)

	assert.Equal(t, AcceptContinue, filter(g.resolved(t, "A")))
	assert.Equal(t, AcceptStop, filter(g.resolved(t, "A.b")))
	assert.Equal(t, RejectStop, filter(g.resolved(t, "A.b.items[0]")))
}

func TestStopAtNode(t *testing.T) {
	g := branchingGraph(t)

	assert.Equal(t, AcceptStop, StopAtNode(g.node("B"))(g.resolved(t, "A.b")))
	assert.Equal(t, AcceptContinue, StopAtNode(g.node("B"))(g.resolved(t, "A.b.items[0]")))

	set := StopAtNodes(g.node("C"), g.node("D"))
	assert.Equal(t, AcceptStop, set(g.resolved(t, "A.b.items[1]")))
	assert.Equal(t, AcceptContinue, set(g.resolved(t, "A.b")))

	byName := StopAtNodeMatching(func(node model.Node) bool { return node.Name() == "C" })
	assert.Equal(t, AcceptStop, byName(g.resolved(t, "A.b.items[0]")))
	assert.Equal(t, AcceptContinue, byName(g.resolved(t, "A.b.items[1]")))
}

func TestStopAtAddressable(t *testing.T) {
	g := branchingGraph(t)
	require.NoError(t, g.repo.Define("pkg", g.node("B")))
	filter := StopAtAddressable(g.repo)

	// The start node is addressable but never tested
	assert.Equal(t, AcceptContinue, filter(g.resolved(t, "A")))
	assert.Equal(t, AcceptStop, filter(g.resolved(t, "A.b")))
	assert.Equal(t, AcceptContinue, filter(g.resolved(t, "A.b.items[0]")))
}

func TestUntilDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	filter := UntilDone(ctx)

	assert.Equal(t, Defer, filter(graphpath.ResolvedPath{}))
	cancel()
	assert.Equal(t, RejectStop, filter(graphpath.ResolvedPath{}))
}

func TestPropertyFilters(t *testing.T) {
	path := graphpath.ResolvedPath{}

	exclude := ExcludeProperties("package", "children")
	assert.False(t, exclude(path, "package"))
	assert.True(t, exclude(path, "items"))

	only := OnlyProperties("items")
	assert.True(t, only(path, "items"))
	assert.False(t, only(path, "package"))
}
