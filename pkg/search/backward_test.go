package search

import (
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
	"github.com/sortbound/sortbound/pkg/shardmap"
)

func chainBW(n int) *bitgraph.Graph {
	g := bitgraph.New(n)
	for i := 0; i < n-1; i++ {
		g.SetEdge(i, i+1)
	}
	return g
}

func TestReductionEdgesMatchesChain(t *testing.T) {
	g := chainBW(4)
	edges := reductionEdges(g)
	if len(edges) != 3 {
		t.Fatalf("chain(4) reduction has %d edges, want 3", len(edges))
	}
}

func TestTransEdgesEmptyForIsolatedEdge(t *testing.T) {
	g := bitgraph.New(3)
	g.SetEdge(0, 1)
	closure := g.TransitiveClosure()
	trans := transEdges(g, closure, 0, 1)
	if len(trans) != 0 {
		t.Fatalf("deleting the only edge should expose no trans-edges, got %v", trans)
	}
}

func TestTransEdgesExposedByChainDeletion(t *testing.T) {
	g := chainBW(3) // 0->1->2, closure has 0->2
	closure := g.TransitiveClosure()
	trans := transEdges(g, closure, 0, 1)
	found := false
	for _, e := range trans {
		if e.a == 0 && e.b == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("deleting 0->1 from the chain should expose 0->2, got %v", trans)
	}
}

func TestSubsetsCountsPowerOfTwo(t *testing.T) {
	es := []edge{{0, 1}, {1, 2}, {2, 3}}
	got := subsets(es)
	if len(got) != 8 {
		t.Fatalf("subsets of 3 edges = %d, want 8", len(got))
	}
}

func TestExpandChildInsertsValidatedPredecessor(t *testing.T) {
	// Child: 0->1 (a single edge at level 1). Its reverse-edge poset,
	// the 2-antichain with 1->0 instead, must be registered as sortable
	// in the child map for the predecessor (the bare antichain) to
	// survive validation.
	child := bitgraph.New(2)
	child.SetEdge(0, 1)
	childClosure := child.TransitiveClosure()

	childMap := shardmap.New(1)
	reversed := bitgraph.New(2)
	reversed.SetEdge(1, 0)
	reversedCanon := poset.Canonicalize(reversed)
	cand := candidateFromCanon(reversedCanon)
	rec, _ := childMap.FindOrInsert(cand)
	rec.SetStatus(poset.StatusYes)

	parentMap := shardmap.New(1)
	inserted := ExpandChild(child, childClosure, childMap, parentMap)
	if len(inserted) == 0 {
		t.Fatal("expected at least one validated predecessor")
	}
}

func TestCompleteAboveScheduleFullLayersExhaustive(t *testing.T) {
	sched := CompleteAboveSchedule(6, 2, 4, 64, 8)
	if sched[0] != 1 || sched[1] != 1 {
		t.Fatalf("full layers must have completeAbove=1, got %v", sched[:2])
	}
	if sched[len(sched)-1] == 0 {
		t.Fatal("schedule must never reach zero")
	}
}
