package search

import (
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

func antichain(n int) *bitgraph.Graph { return bitgraph.New(n) }

func TestEnumerateComparisonsZeroPairsCoversBody(t *testing.T) {
	g := antichain(4)
	tc := g.TransitiveClosure()
	tbl := poset.CountLinearExtensions(tc)
	info := poset.Info{N: 4}
	cmps := enumerateComparisons(info, tbl)
	if len(cmps) == 0 {
		t.Fatal("expected at least one candidate comparison for a 4-antichain")
	}
	for _, c := range cmps {
		if c.tij.Sign() <= 0 && c.tji.Sign() <= 0 {
			t.Fatalf("comparison (%d,%d) has no extensions either direction", c.i, c.j)
		}
	}
}

func TestFeasibleRejectsZeroExtension(t *testing.T) {
	g := antichain(2)
	g.SetEdge(0, 1)
	tc := g.TransitiveClosure()
	tbl := poset.CountLinearExtensions(tc)
	c := comparison{i: 0, j: 1, tij: tbl.T[0][1], tji: tbl.T[1][0]}
	if feasible(c, 4) {
		t.Fatal("a directed pair should not be feasible as a fresh comparison")
	}
}

func TestApplyComparisonReducesRedundantEdge(t *testing.T) {
	g := antichain(3)
	g.SetEdge(0, 1)
	g.SetEdge(0, 2)
	closure := g.TransitiveClosure()
	result := applyComparison(g, closure, 1, 2)
	if result.HasEdge(0, 2) {
		t.Fatal("0->2 should have been reduced away once 1->2 is learned")
	}
	if !result.HasEdge(0, 1) || !result.HasEdge(1, 2) {
		t.Fatal("direct edges 0->1 and 1->2 must survive")
	}
}

func TestResolveEdgesPropagatesYes(t *testing.T) {
	layer := NewLayer(3, 4, 0)
	parent := &poset.Record{}
	parent.SetStatus(poset.StatusUnfinished)
	childA := &poset.Record{}
	childA.SetStatus(poset.StatusYes)
	childB := &poset.Record{}
	childB.SetStatus(poset.StatusYes)

	g := antichain(3)
	layer.Add(parent, g, g, poset.Info{N: 3})
	layer.Add(childA, g, g, poset.Info{N: 3})
	layer.Add(childB, g, g, poset.Info{N: 3})

	entries := []EdgeEntry{{ParentIdx: 0, ChildA: 1, ChildB: 2}}
	ResolveEdges(layer, entries, nil)

	if got := layer.Record(0).Status(); got != poset.StatusYes {
		t.Fatalf("parent status = %v, want Yes", got)
	}
}
