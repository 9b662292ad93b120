// Package bitgraph implements a packed-adjacency representation of a DAG on
// up to [config.MaxN] vertices. Each row is a bitmask of out-neighbours,
// stored in a uint32 so the whole graph fits in registers for N ≤ 32 (spec
// §1 non-goal (b)). Operations are word-parallel over rows: transitive
// closure, transitive reduction seeded at a known edge, reversal,
// reordering by permutation, and layer decomposition.
package bitgraph

import (
	"math/bits"

	"github.com/sortbound/sortbound/pkg/config"
)

// Row is the out-neighbour bitmask of one vertex. Bit i of a row set means
// "this vertex has an edge to vertex i".
type Row = uint32

// Graph is a fixed-capacity packed adjacency matrix for a DAG on N ≤
// [config.MaxN] vertices. The zero value is the empty graph on N=0
// vertices; use [New] to size it explicitly.
//
// Graph is not safe for concurrent use — callers that share a Graph across
// goroutines must synchronize externally (the search engine instead gives
// each worker its own scratch Graph, per spec §5).
type Graph struct {
	n    int
	rows [config.MaxN]Row
}

// New returns an edgeless Graph on n vertices. Panics if n is out of
// [0, config.MaxN] — this is a programmer error, not a runtime one, since N
// is fixed for the lifetime of a run.
func New(n int) *Graph {
	if n < 0 || n > config.MaxN {
		panic("bitgraph: n out of range")
	}
	return &Graph{n: n}
}

// N returns the vertex count this graph was sized for.
func (g *Graph) N() int { return g.n }

// HasEdge reports whether there is an edge i→j.
func (g *Graph) HasEdge(i, j int) bool { return g.rows[i]&(1<<uint(j)) != 0 }

// SetEdge adds the edge i→j.
func (g *Graph) SetEdge(i, j int) { g.rows[i] |= 1 << uint(j) }

// ClearEdge removes the edge i→j, if present.
func (g *Graph) ClearEdge(i, j int) { g.rows[i] &^= 1 << uint(j) }

// Row returns the raw out-neighbour bitmask for vertex i.
func (g *Graph) Row(i int) Row { return g.rows[i] }

// SetRow overwrites the out-neighbour bitmask for vertex i.
func (g *Graph) SetRow(i int, r Row) { g.rows[i] = r }

// OutDegree returns the number of outgoing edges from vertex i.
func (g *Graph) OutDegree(i int) int { return bits.OnesCount32(g.rows[i]) }

// InDegree returns the number of incoming edges to vertex j, computed by
// scanning every row — O(N), used only during canonicalization setup where
// an amortized cost is acceptable.
func (g *Graph) InDegree(j int) int {
	count := 0
	mask := Row(1) << uint(j)
	for i := 0; i < g.n; i++ {
		if g.rows[i]&mask != 0 {
			count++
		}
	}
	return count
}

// EdgeCount returns the total number of edges in the graph.
func (g *Graph) EdgeCount() int {
	total := 0
	for i := 0; i < g.n; i++ {
		total += bits.OnesCount32(g.rows[i])
	}
	return total
}

// Clone returns an independent copy of g.
func (g *Graph) Clone() *Graph {
	clone := *g
	return &clone
}

// CopyFrom overwrites g's rows with src's. Both must share the same N.
func (g *Graph) CopyFrom(src *Graph) {
	g.n = src.n
	g.rows = src.rows
}

// TransitiveClosure returns a new graph containing every edge i→j implied
// by a directed path i→…→j in g (spec §4.1: Warshall's algorithm with
// bitwise OR over rows — word-parallel since a row is a single machine
// word).
func (g *Graph) TransitiveClosure() *Graph {
	tc := g.Clone()
	for k := 0; k < g.n; k++ {
		kMask := Row(1) << uint(k)
		for i := 0; i < g.n; i++ {
			if tc.rows[i]&kMask != 0 {
				tc.rows[i] |= tc.rows[k]
			}
		}
	}
	return tc
}

// Reverse returns a new graph with every edge reversed.
func (g *Graph) Reverse() *Graph {
	rev := New(g.n)
	for i := 0; i < g.n; i++ {
		row := g.rows[i]
		for row != 0 {
			j := bits.TrailingZeros32(row)
			row &= row - 1
			rev.rows[j] |= 1 << uint(i)
		}
	}
	return rev
}

// Reorder returns a new graph under the vertex permutation perm: vertex i
// in g becomes vertex perm[i] in the result. perm must be a permutation of
// [0,g.N()).
func (g *Graph) Reorder(perm []int) *Graph {
	out := New(g.n)
	for i := 0; i < g.n; i++ {
		row := g.rows[i]
		var newRow Row
		for row != 0 {
			j := bits.TrailingZeros32(row)
			row &= row - 1
			newRow |= 1 << uint(perm[j])
		}
		out.rows[perm[i]] = newRow
	}
	return out
}

// TransitiveReduction seeds a reduction at a freshly added edge (u,v) on
// the closure tc of g: for every predecessor w of u in tc, the edge w→v is
// redundant and cleared; for every successor w of v, u→w is redundant; and
// every (pred of u, succ of v) pair is redundant too (spec §4.1). g is
// mutated in place and must already contain (u,v).
func (g *Graph) TransitiveReduction(tc *Graph, u, v int) {
	predU := predecessorMask(tc, u)
	succV := tc.rows[v]

	// w -> v is redundant for every w that reaches u.
	pw := predU
	for pw != 0 {
		w := bits.TrailingZeros32(pw)
		pw &= pw - 1
		g.ClearEdge(w, v)
	}

	// u -> w is redundant for every w reachable from v.
	sw := succV
	for sw != 0 {
		w := bits.TrailingZeros32(sw)
		sw &= sw - 1
		g.ClearEdge(u, w)
	}

	// every predecessor-of-u -> successor-of-v edge is redundant.
	pw = predU
	for pw != 0 {
		w := bits.TrailingZeros32(pw)
		pw &= pw - 1
		sw = succV
		for sw != 0 {
			x := bits.TrailingZeros32(sw)
			sw &= sw - 1
			g.ClearEdge(w, x)
		}
	}
}

// FullTransitiveReduction clears every edge (i,j) for which tc contains a
// strictly longer path i→…→j, i.e. the minimal DAG with the same
// reachability as g. Used when canonicalizing a graph assembled all at
// once (rather than edge-by-edge via TransitiveReduction).
func (g *Graph) FullTransitiveReduction(tc *Graph) *Graph {
	out := g.Clone()
	for i := 0; i < g.n; i++ {
		row := out.rows[i]
		for row != 0 {
			j := bits.TrailingZeros32(row)
			row &= row - 1
			// (i,j) is redundant if some k != j with i->k->...->j.
			mid := tc.rows[i] &^ (Row(1) << uint(j))
			m := mid
			for m != 0 {
				k := bits.TrailingZeros32(m)
				m &= m - 1
				if tc.rows[k]&(Row(1)<<uint(j)) != 0 {
					out.ClearEdge(i, j)
					break
				}
			}
		}
	}
	return out
}

// predecessorMask returns the set of vertices w != u with an edge w->u in
// the closure tc.
func predecessorMask(tc *Graph, u int) Row {
	var mask Row
	for w := 0; w < tc.n; w++ {
		if w != u && tc.rows[w]&(Row(1)<<uint(u)) != 0 {
			mask |= 1 << uint(w)
		}
	}
	return mask
}

// LayerDecompose repeatedly peels the subset of available vertices whose
// in-neighbours (restricted to the remaining vertex set) are all already
// placed, emitting each peeled subset as one layer (spec §4.1). The
// concatenation of layers, in order, is a valid topological order. g is
// assumed acyclic; callers must guarantee this (spec §3 invariant).
func (g *Graph) LayerDecompose() [][]int {
	n := g.n
	remaining := Row(0)
	if n > 0 {
		remaining = (Row(1) << uint(n)) - 1
	}
	// inMask[v] = in-neighbours of v restricted to `remaining`.
	var inMask [config.MaxN]Row
	for v := 0; v < n; v++ {
		for w := 0; w < n; w++ {
			if g.rows[w]&(Row(1)<<uint(v)) != 0 {
				inMask[v] |= 1 << uint(w)
			}
		}
	}

	var layers [][]int
	for remaining != 0 {
		var layer []int
		var ready Row
		r := remaining
		for r != 0 {
			v := bits.TrailingZeros32(r)
			r &= r - 1
			if inMask[v]&remaining == 0 {
				layer = append(layer, v)
				ready |= 1 << uint(v)
			}
		}
		if len(layer) == 0 {
			// Only possible if g has a cycle, violating the precondition.
			break
		}
		layers = append(layers, layer)
		remaining &^= ready
	}
	return layers
}
