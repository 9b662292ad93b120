package poset

import (
	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/linext"
)

// closureOrder adapts a *bitgraph.Graph transitive closure to
// linext.Order, so the linear-extension counter never needs to import
// bitgraph directly.
type closureOrder struct{ tc *bitgraph.Graph }

func (c closureOrder) N() int               { return c.tc.N() }
func (c closureOrder) Before(i, j int) bool { return c.tc.HasEdge(i, j) }

// CountLinearExtensions returns the full dominance table for the body of
// a canonicalized poset whose transitive closure is tc.
func CountLinearExtensions(tc *bitgraph.Graph) linext.Table {
	return linext.Count(closureOrder{tc})
}

// CountLinearExtensionsFast attempts the uint64 fast path, reporting
// overflow so the caller can fall back to CountLinearExtensions.
func CountLinearExtensionsFast(tc *bitgraph.Graph) (value uint64, overflowed bool) {
	return linext.CountFast(closureOrder{tc})
}
