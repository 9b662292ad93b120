// Package pkg provides the core libraries for sortbound, a comparison-
// sorting lower-bound engine.
//
// # Overview
//
// sortbound decides, for a given N and comparison budget C, whether every
// N-permutation can be sorted using at most C pairwise comparisons. It
// explores the poset space reachable from the antichain under comparison
// queries, modulo graph isomorphism, using a bidirectional (forward
// BFS/AND-OR plus backward BFS) search backed by a sharded hash map, an
// old-gen mmap cache, and a spill vector.
//
// # Main packages
//
// [bitgraph] - bit-packed adjacency matrices and transitive operations
// (closure, reduction, reordering).
//
// [poset] - canonicalization (graph-isomorphism-modulo dedup), singleton/
// pair accounting, and the persisted PosetRecord representation.
//
// [linext] - linear-extension counting, the sortability test at the heart
// of both search directions.
//
// [shardmap] - the sharded concurrent hash map layers are built on.
//
// [oldgen] - the mmap-backed old-generation cache for cold posets.
//
// [spillvec] - the mmap-backed spill vector for overflow beyond the active
// window.
//
// [search] - forward and backward search steps, the batch distributor, and
// the bidirectional driver.
//
// [engine] - top-level configuration, orchestration, and layer-file
// persistence.
//
// [config] - compile-time bounds and the information-theoretic C default.
//
// [errors], [eventlog], [profiler], [stats] - the ambient stack: structured
// errors, the event log, section timing, and run-time counters.
package pkg
