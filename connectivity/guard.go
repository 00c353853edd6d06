// Package connectivity implements ConnectivityGuard: a bounded-work
// articulation test that rejects a copy attempt which would fragment the
// cell losing the target vertex.
//
// The approach is the N-dimensional, integer-vertex generalization of two
// lvlath ideas: core/view.go's InducedSubgraph ("build the induced
// subgraph of a vertex set without touching the source graph") supplies
// the "restrict to N²(t)∪{t}\{t}" step, and gridgraph.ConnectedComponents'
// BFS-over-same-value-neighbors supplies the "are all remaining same-cell
// neighbors of t in one component" check — generalized from "same grid
// value" to "same cell id". Where lvlath marks visited vertices with a
// map[string]bool per call, Guard uses a flat epoch-stamped slice sized V
// and reused across every call, so a run of mh_step attempts never
// reallocates scratch (spec.md §4.4, §5).
package connectivity

import "github.com/cpmsim/cpm/cellstate"

// Guard holds the per-lattice reusable scratch for the articulation test.
type Guard struct {
	regionEpoch  []uint32 // marks vertices in the induced N²(t) region
	visitEpoch   []uint32 // marks vertices visited during the BFS
	epoch        uint32
	queue        []int32 // reusable BFS queue, grows to the largest region seen
	sameCellBuf  []int32 // reusable buffer of t's same-cell neighbors
	regionMember []int32 // reusable buffer of region member vertices
}

// NewGuard allocates the V-sized scratch slices once; they are never
// reallocated afterward (only grown-then-reused for the small per-call
// queue/buffers).
func NewGuard(vertexCount int) *Guard {
	return &Guard{
		regionEpoch: make([]uint32, vertexCount),
		visitEpoch:  make([]uint32, vertexCount),
	}
}

// neighborhood is the minimal view Guard needs of CellSpace, kept as an
// interface so this package has no import-cycle dependency on lattice.
type neighborhood interface {
	Neighbors(v int) []int32
	NodeID(v int) uint32
}

// WouldDisconnect reports whether removing vertex t from cell idTarget
// (by reassigning it to a different cell) would disconnect idTarget's
// remaining vertex set. Medium (cellstate.MediumID) is exempt and always
// returns false.
func (g *Guard) WouldDisconnect(lat neighborhood, t int32, idTarget uint32) bool {
	if idTarget == cellstate.MediumID {
		return false
	}

	g.sameCellBuf = g.sameCellBuf[:0]
	for _, u := range lat.Neighbors(int(t)) {
		if lat.NodeID(int(u)) == idTarget {
			g.sameCellBuf = append(g.sameCellBuf, u)
		}
	}
	if len(g.sameCellBuf) <= 1 {
		// Zero or one same-cell neighbor: removing t cannot fragment
		// anything it no longer touches, or touches only once.
		return false
	}

	g.epoch++
	e := g.epoch

	// Mark the induced region: N(t) ∪ N(N(t)), restricted to idTarget,
	// excluding t itself. The 2-hop pass only expands over the 1-hop
	// vertices recorded so far (oneHopCount), not over 2-hop vertices
	// appended while it runs.
	g.regionMember = g.regionMember[:0]
	for _, u := range lat.Neighbors(int(t)) {
		g.markRegion(lat, u, t, idTarget, e)
	}
	oneHopCount := len(g.regionMember)
	for i := 0; i < oneHopCount; i++ {
		u := g.regionMember[i]
		for _, w := range lat.Neighbors(int(u)) {
			g.markRegion(lat, w, t, idTarget, e)
		}
	}

	// BFS within the region from one same-cell neighbor of t.
	g.queue = g.queue[:0]
	start := g.sameCellBuf[0]
	g.visitEpoch[start] = e
	g.queue = append(g.queue, start)
	for head := 0; head < len(g.queue); head++ {
		v := g.queue[head]
		for _, w := range lat.Neighbors(int(v)) {
			if w == t {
				continue
			}
			if g.regionEpoch[w] != e {
				continue
			}
			if g.visitEpoch[w] == e {
				continue
			}
			g.visitEpoch[w] = e
			g.queue = append(g.queue, w)
		}
	}

	for _, n := range g.sameCellBuf {
		if g.visitEpoch[n] != e {
			return true // a same-cell neighbor of t was unreachable: fragmentation
		}
	}
	return false
}

// markRegion stamps v into the induced region for this call if it is not
// t itself and belongs to idTarget.
func (g *Guard) markRegion(lat neighborhood, v, t int32, idTarget uint32, e uint32) {
	if v == t {
		return
	}
	if g.regionEpoch[v] == e {
		return
	}
	if lat.NodeID(int(v)) != idTarget {
		return
	}
	g.regionEpoch[v] = e
	g.regionMember = append(g.regionMember, v)
}
