package oldgen

import (
	"path/filepath"
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

func chainGraph(n int) *bitgraph.Graph {
	g := bitgraph.New(n)
	for i := 0; i < n-1; i++ {
		g.SetEdge(i, i+1)
	}
	return g
}

func TestPutLookupRoundTrip(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "oldgen.db"), 1024)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	g := chainGraph(4)
	canon := poset.Canonicalize(g)
	cand := Candidate{
		Hash64:      canon.Fingerprint,
		Reduced:     canon.Reduced,
		UniqueGraph: canon.UniqueGraph,
		SelfDual:    canon.SelfDual,
		Status:      poset.StatusYes,
	}
	if err := m.Put(cand); err != nil {
		t.Fatalf("Put: %v", err)
	}
	status, ok := m.Lookup(cand)
	if !ok {
		t.Fatalf("Lookup missed after Put")
	}
	if status != poset.StatusYes {
		t.Fatalf("Lookup status=%v want YES", status)
	}
}

func TestPutDoesNotDowngradeYes(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "oldgen.db"), 1024)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	g := chainGraph(4)
	canon := poset.Canonicalize(g)
	base := Candidate{
		Hash64:      canon.Fingerprint,
		Reduced:     canon.Reduced,
		UniqueGraph: canon.UniqueGraph,
		SelfDual:    canon.SelfDual,
	}

	yes := base
	yes.Status = poset.StatusYes
	if err := m.Put(yes); err != nil {
		t.Fatalf("Put(yes): %v", err)
	}

	unfinished := base
	unfinished.Status = poset.StatusUnfinished
	if err := m.Put(unfinished); err != nil {
		t.Fatalf("Put(unfinished): %v", err)
	}

	status, ok := m.Lookup(base)
	if !ok {
		t.Fatalf("Lookup missed")
	}
	if status != poset.StatusYes {
		t.Fatalf("status downgraded from YES to %v", status)
	}
}
