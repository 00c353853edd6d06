package cpm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/lattice"
)

// cellGrowth tracks one cell's BFS frontier during placement: the queue
// of free neighbors discovered so far and how many have already been
// consumed (head), the same "reusable queue, advance a head index
// instead of slicing" idiom connectivity/guard.go's BFS uses for its scratch.
type cellGrowth struct {
	id       uint32
	desired  int
	frontier []int32
	head     int
}

// placeCells seeds every non-medium row of tbl onto lat and expands each
// one by one-vertex-per-round BFS growth, round-robin across cells, until
// every cell reaches its desired volume or the lattice saturates
// (spec.md §6). A cell whose Position is non-zero is seeded at its
// nearest free vertex ("deterministic seed-and-grow"); otherwise its seed
// is drawn uniformly from the remaining free vertices ("random
// non-overlapping seeds"). Caller must have already set tbl's medium
// volume to lat.VertexCount() so the running volume bookkeeping stays
// balanced.
func placeCells(lat *lattice.CellSpace, tbl *cellstate.CellTable, rng *rand.Rand) error {
	const op = "cpm.placeCells"

	v := lat.VertexCount()
	taken := make([]bool, v)

	var cells []*cellGrowth
	totalDesired := 0
	tbl.IterateRows(func(id uint32) bool {
		if id == cellstate.MediumID {
			return true
		}
		desired := int(math.Round(tbl.DesiredVolume(id)))
		if desired < 1 {
			desired = 1
		}
		totalDesired += desired
		cells = append(cells, &cellGrowth{id: id, desired: desired})
		return true
	})
	if totalDesired > v {
		return cpmerrors.Wrap(cpmerrors.ErrPlacement, op, -1,
			fmt.Errorf("desired volumes sum to %d, lattice capacity is %d", totalDesired, v))
	}

	free := make([]int32, v)
	for i := range free {
		free[i] = int32(i)
	}
	popRandomFree := func() (int32, bool) {
		for len(free) > 0 {
			idx := rng.Intn(len(free))
			candidate := free[idx]
			free[idx] = free[len(free)-1]
			free = free[:len(free)-1]
			if !taken[candidate] {
				return candidate, true
			}
		}
		return 0, false
	}

	claim := func(cg *cellGrowth, vertex int32) {
		taken[vertex] = true
		coord := lat.Coordinates(int(vertex))
		coordF := make([]float64, len(coord))
		for i, c := range coord {
			coordF[i] = float64(c)
		}

		lat.Set(int(vertex), cg.id, tbl.TypeID(cg.id))
		tbl.AddVolume(cellstate.MediumID, -1)
		tbl.AddVolume(cg.id, 1)
		tbl.AbsorbPoint(cg.id, coordF, tbl.Volume(cg.id))

		for _, n := range lat.Neighbors(int(vertex)) {
			if !taken[n] {
				cg.frontier = append(cg.frontier, n)
			}
		}
	}

	shape := lat.GridShape()
	for _, cg := range cells {
		pos := tbl.Position(cg.id)
		hasPosition := false
		for _, p := range pos {
			if p != 0 {
				hasPosition = true
				break
			}
		}
		if hasPosition {
			if err := validatePosition(shape, pos); err != nil {
				return cpmerrors.Wrap(cpmerrors.ErrPlacement, op, int(cg.id), err)
			}
		}

		var seedVertex int32
		var ok bool
		if hasPosition {
			seedVertex, ok = nearestFreeVertex(lat, pos, taken)
		} else {
			seedVertex, ok = popRandomFree()
		}
		if !ok {
			return cpmerrors.Wrap(cpmerrors.ErrPlacement, op, int(cg.id),
				fmt.Errorf("no free vertex available to seed cell"))
		}
		claim(cg, seedVertex)
	}

	for {
		progressed := false
		for _, cg := range cells {
			if tbl.Volume(cg.id) >= cg.desired {
				continue
			}
			for cg.head < len(cg.frontier) {
				candidate := cg.frontier[cg.head]
				cg.head++
				if taken[candidate] {
					continue
				}
				claim(cg, candidate)
				progressed = true
				break
			}
		}
		if !progressed {
			break // every cell either reached its desired volume or is boxed in
		}
	}

	recomputePerimeters(lat, tbl)
	return nil
}

// validatePosition rejects a requested seed position whose coordinate on
// any axis falls outside [0, shape[axis]) — spec.md §7's "positions are
// out of range" PlacementError, instead of silently snapping it to the
// nearest in-bounds vertex.
func validatePosition(shape []int, pos []float64) error {
	if len(pos) != len(shape) {
		return fmt.Errorf("position has %d coordinates, lattice has %d dimensions", len(pos), len(shape))
	}
	for axis, p := range pos {
		if p < 0 || p >= float64(shape[axis]) {
			return fmt.Errorf("position coordinate %g (axis %d) outside [0, %d)", p, axis, shape[axis])
		}
	}
	return nil
}

// recomputePerimeters does the full boundary-edge recount spec.md §9
// requires after any non-MH lattice mutation: placement paints every
// non-medium cell directly rather than through mh_step's incremental
// perimeter bookkeeping, so perimeter must be counted from scratch
// afterward rather than left at its zero-valued initial state. For each
// undirected edge (u,v) with different cell ids, the non-medium endpoint
// (or both, if neither is medium) gains one boundary edge, matching
// penalty.PerimeterPenalty's own definition of a cell's perimeter.
func recomputePerimeters(lat *lattice.CellSpace, tbl *cellstate.CellTable) {
	counts := make(map[uint32]int)
	lat.Edges(func(u, v int32) {
		idU := lat.NodeID(int(u))
		idV := lat.NodeID(int(v))
		if idU == idV {
			return
		}
		if idU != cellstate.MediumID {
			counts[idU]++
		}
		if idV != cellstate.MediumID {
			counts[idV]++
		}
	})
	tbl.IterateRows(func(id uint32) bool {
		if id != cellstate.MediumID {
			tbl.SetPerimeter(id, counts[id])
		}
		return true
	})
}

// nearestFreeVertex does a linear scan for the free vertex closest to pos
// in Euclidean distance over lattice coordinates. Construction-time only
// (never on the per-attempt hot path), so O(V) per seeded cell is an
// acceptable cost for a deterministic placement.
func nearestFreeVertex(lat *lattice.CellSpace, pos []float64, taken []bool) (int32, bool) {
	best := int32(-1)
	bestDist := math.Inf(1)
	for v := 0; v < lat.VertexCount(); v++ {
		if taken[v] {
			continue
		}
		coord := lat.Coordinates(v)
		dist := 0.0
		for i, c := range coord {
			d := float64(c) - pos[i]
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = int32(v)
		}
	}
	return best, best >= 0
}
