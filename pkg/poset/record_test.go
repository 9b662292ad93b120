package poset

import "testing"

func TestRecordFlagsIndependent(t *testing.T) {
	var r Record
	r.SetSelfDual(true)
	r.SetUniqueGraph(false)
	r.SetMarked(true)
	r.SetStatus(StatusYes)

	if !r.SelfDual() || r.UniqueGraph() || !r.Marked() {
		t.Fatalf("flags: selfDual=%v uniqueGraph=%v marked=%v", r.SelfDual(), r.UniqueGraph(), r.Marked())
	}
	if r.Status() != StatusYes {
		t.Fatalf("Status()=%v want YES", r.Status())
	}

	r.SetSelfDual(false)
	if r.SelfDual() {
		t.Fatalf("SetSelfDual(false) did not clear")
	}
	if r.Status() != StatusYes {
		t.Fatalf("unrelated flag clear disturbed status")
	}
}

func TestGraphBitRoundTrip(t *testing.T) {
	var r Record
	n := 6
	r.SetGraphBit(n, 0, 3, true)
	r.SetGraphBit(n, 2, 5, true)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			want := (i == 0 && j == 3) || (i == 2 && j == 5)
			if got := r.GraphBit(n, i, j); got != want {
				t.Errorf("GraphBit(%d,%d)=%v want %v", i, j, got, want)
			}
		}
	}
	r.SetGraphBit(n, 0, 3, false)
	if r.GraphBit(n, 0, 3) {
		t.Fatalf("clear did not take effect")
	}
}

func TestInfoValidate(t *testing.T) {
	ok := Info{N: 10, K: 3, P: 2}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid info, got %v", err)
	}
	bad := Info{N: 5, K: 4, P: 1}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid info to fail validation")
	}
	if ok.ReducedWidth() != 3 {
		t.Fatalf("ReducedWidth()=%d want 3", ok.ReducedWidth())
	}
}
