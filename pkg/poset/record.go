package poset

import "github.com/sortbound/sortbound/pkg/config"

// Status is the sortability verdict of a PosetRecord (spec §3 Lifecycle).
type Status uint8

const (
	StatusUnfinished Status = iota
	StatusYes
	StatusNo
)

func (s Status) String() string {
	switch s {
	case StatusYes:
		return "YES"
	case StatusNo:
		return "NO"
	default:
		return "UNFINISHED"
	}
}

// numGraphWords is the number of 64-bit words needed to hold the packed
// upper-triangle reduction bits for the largest supported N, i.e.
// ceil(MaxN*(MaxN-1)/2 / 64).
const numGraphWords = (config.MaxN*(config.MaxN-1)/2 + 63) / 64

// Record is the canonical, bit-packed representation of one poset in the
// search space (spec §3 PosetRecord). It deliberately avoids Go struct
// bit-fields: graphBits and the flag byte use explicit shift/mask
// accessors because the on-disk layer-file format (spec §6) depends on
// the exact bit layout, which language bit-fields do not guarantee across
// compilers/ABIs — the same reasoning as the original engine's
// posetObjCore.h (spec §9).
type Record struct {
	graphBits [numGraphWords]uint64
	hash64    uint64
	flags     uint8 // bit0 selfDual, bit1 uniqueGraph, bit2 marked; bits3-4 status
	linExt    [config.MaxN + 1]uint64
}

const (
	flagSelfDual    = 1 << 0
	flagUniqueGraph = 1 << 1
	flagMarked      = 1 << 2
	statusShift     = 3
	statusMask      = 0x3 << statusShift
)

// edgeBitIndex maps an upper-triangle pair (i<j) of an N-vertex reduced
// graph to its bit position in the packed graphBits array, row-major over
// i with j running i+1..N-1 — identical to posetObjCore.h's graphGet/Set
// addressing scheme.
func edgeBitIndex(n, i, j int) int {
	// number of pairs before row i: sum_{k=0}^{i-1} (n-1-k)
	before := i*(n-1) - i*(i-1)/2
	return before + (j - i - 1)
}

// GraphBit returns whether the reduction edge (i,j), i<j, is set in the
// packed upper-triangle bitset for an n-vertex poset.
func (r *Record) GraphBit(n, i, j int) bool {
	idx := edgeBitIndex(n, i, j)
	return r.graphBits[idx/64]&(1<<uint(idx%64)) != 0
}

// SetGraphBit sets or clears the reduction edge (i,j), i<j.
func (r *Record) SetGraphBit(n, i, j int, v bool) {
	idx := edgeBitIndex(n, i, j)
	mask := uint64(1) << uint(idx%64)
	if v {
		r.graphBits[idx/64] |= mask
	} else {
		r.graphBits[idx/64] &^= mask
	}
}

// ClearGraphBits zeroes the packed bitset, e.g. before serializing a fresh
// canonical ordering into it.
func (r *Record) ClearGraphBits() {
	for i := range r.graphBits {
		r.graphBits[i] = 0
	}
}

// Hash64 returns the record's dedup fingerprint (spec §4.2 step 6).
func (r *Record) Hash64() uint64 { return r.hash64 }

// SetHash64 sets the record's dedup fingerprint.
func (r *Record) SetHash64(h uint64) { r.hash64 = h }

// Status returns the current sortability verdict.
func (r *Record) Status() Status {
	return Status((r.flags & statusMask) >> statusShift)
}

// SetStatus overwrites the sortability verdict. Transitions must be
// monotone (UNFINISHED -> YES|NO, never reversed) per spec §3 Lifecycle;
// callers are responsible for enforcing that under the owning shard lock.
func (r *Record) SetStatus(s Status) {
	r.flags = (r.flags &^ statusMask) | (uint8(s) << statusShift)
}

// SelfDual reports whether the canonicalizer found this poset's forward
// and reverse canonical forms equal after reordering.
func (r *Record) SelfDual() bool { return r.flags&flagSelfDual != 0 }

// SetSelfDual sets the self-dual flag.
func (r *Record) SetSelfDual(v bool) { r.setFlag(flagSelfDual, v) }

// UniqueGraph reports whether the canonicalizer proved graphBits is a
// unique fingerprint (no unresolved automorphism ambiguity).
func (r *Record) UniqueGraph() bool { return r.flags&flagUniqueGraph != 0 }

// SetUniqueGraph sets the unique-graph flag.
func (r *Record) SetUniqueGraph(v bool) { r.setFlag(flagUniqueGraph, v) }

// Marked reports whether this record has been marked for the forward
// search's phase-0 staging pass (spec §4.8).
func (r *Record) Marked() bool { return r.flags&flagMarked != 0 }

// SetMarked sets the marked flag.
func (r *Record) SetMarked(v bool) { r.setFlag(flagMarked, v) }

func (r *Record) setFlag(bit uint8, v bool) {
	if v {
		r.flags |= bit
	} else {
		r.flags &^= bit
	}
}

// LinExt returns the cached linear-extension count for comparison budget
// c, or 0 if not yet computed.
func (r *Record) LinExt(c int) uint64 { return r.linExt[c] }

// SetLinExt caches the linear-extension count for comparison budget c.
func (r *Record) SetLinExt(c int, v uint64) { r.linExt[c] = v }
