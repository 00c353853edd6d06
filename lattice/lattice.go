// Package lattice implements CellSpace: a finite undirected graph derived
// from an N-dimensional regular grid, exposed as a compressed sparse row
// (CSR) adjacency so neighbor iteration is O(1) per step and allocation-free
// after construction.
//
// The coordinate <-> row-major index math is the N-D generalization of
// lvlath/gridgraph's 2-D index/Coordinate helpers; the CSR layout itself is
// the graph-library idiom for "precompute adjacency once, iterate cheaply
// forever" that lvlath/matrix applies to dense numeric arrays and this
// package applies to grid topology.
package lattice

import (
	"fmt"

	"github.com/cpmsim/cpm/cpmerrors"
)

// MaxDimensions bounds the rank of a CellSpace's grid. Chosen generously
// above any realistic CPM scenario (2-D and 3-D tissue simulations are the
// common case) while keeping Moore-neighborhood offset enumeration
// (3^N-1) tractable.
const MaxDimensions = 8

// CellSpace is a finite undirected graph over an N-dimensional grid.
// Every vertex carries a cell id (0 == medium) and a cell type tag
// (0 == medium type). Adjacency is precomputed at construction time.
type CellSpace struct {
	shape    []int  // extent per axis
	periodic []bool // per-axis wrap flag
	strides  []int  // row-major stride per axis, for Index/Coordinates
	nbhd     Neighborhood

	csrOffsets  []int32 // len = V+1
	csrNeighbor []int32 // len = csrOffsets[V]

	nodeID   []uint32
	nodeType []uint32
}

// New constructs a CellSpace from a shape (1..MaxDimensions positive
// extents), a per-axis periodicity flag, and a neighborhood kind. If
// periodic has length 1 it is broadcast across every axis, mirroring
// spec.md's "periodicity is per-axis bool or a single bool."
func New(shape []int, periodic []bool, nbhd Neighborhood) (*CellSpace, error) {
	const op = "lattice.New"
	if len(shape) == 0 {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, fmt.Errorf("empty shape"))
	}
	if len(shape) > MaxDimensions {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
			fmt.Errorf("shape has %d dimensions, max %d", len(shape), MaxDimensions))
	}
	for axis, extent := range shape {
		if extent <= 0 {
			return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
				fmt.Errorf("axis %d: non-positive extent %d", axis, extent))
		}
	}

	per, err := broadcastPeriodicity(periodic, len(shape))
	if err != nil {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, err)
	}

	strides := stridesOf(shape)
	v := 1
	for _, extent := range shape {
		v *= extent
	}

	cs := &CellSpace{
		shape:    append([]int(nil), shape...),
		periodic: per,
		strides:  strides,
		nbhd:     nbhd,
		nodeID:   make([]uint32, v),
		nodeType: make([]uint32, v),
	}
	cs.buildAdjacency()

	return cs, nil
}

func broadcastPeriodicity(periodic []bool, ndim int) ([]bool, error) {
	switch len(periodic) {
	case 0:
		return make([]bool, ndim), nil
	case 1:
		out := make([]bool, ndim)
		for i := range out {
			out[i] = periodic[0]
		}
		return out, nil
	case ndim:
		return append([]bool(nil), periodic...), nil
	default:
		return nil, fmt.Errorf("periodicity has %d entries, want 1 or %d", len(periodic), ndim)
	}
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		strides[axis] = acc
		acc *= shape[axis]
	}
	return strides
}

// buildAdjacency precomputes the CSR neighbor lists for every vertex. Each
// axis independently wraps (periodic) or clamps (non-periodic); degenerate
// offsets that would produce a self-loop (extent==1 on a periodic axis, or
// cancelling offsets on an extent==2 periodic axis) are deduplicated so
// every stored neighbor is distinct from v and from every other neighbor.
func (cs *CellSpace) buildAdjacency() {
	ndim := len(cs.shape)
	offs := cs.nbhd.offsets(ndim)
	v := len(cs.nodeID)

	cs.csrOffsets = make([]int32, v+1)
	neighborLists := make([][]int32, v)

	coord := make([]int, ndim)
	seen := make(map[int32]struct{}, len(offs))
	total := 0
	for vertex := 0; vertex < v; vertex++ {
		cs.coordinatesInto(vertex, coord)
		for k := range seen {
			delete(seen, k)
		}
		list := make([]int32, 0, len(offs))
		nc := make([]int, ndim)
		for _, off := range offs {
			ok := true
			for axis := 0; axis < ndim; axis++ {
				c := coord[axis] + off[axis]
				if cs.periodic[axis] {
					m := cs.shape[axis]
					c = ((c % m) + m) % m
				} else if c < 0 || c >= cs.shape[axis] {
					ok = false
					break
				}
				nc[axis] = c
			}
			if !ok {
				continue
			}
			nv := int32(cs.index(nc))
			if int(nv) == vertex {
				continue // degenerate wrap onto self
			}
			if _, dup := seen[nv]; dup {
				continue // degenerate wrap onto an already-listed neighbor
			}
			seen[nv] = struct{}{}
			list = append(list, nv)
		}
		neighborLists[vertex] = list
		total += len(list)
	}

	cs.csrNeighbor = make([]int32, 0, total)
	for vertex := 0; vertex < v; vertex++ {
		cs.csrOffsets[vertex] = int32(len(cs.csrNeighbor))
		cs.csrNeighbor = append(cs.csrNeighbor, neighborLists[vertex]...)
	}
	cs.csrOffsets[v] = int32(len(cs.csrNeighbor))
}

// VertexCount returns the total number of grid vertices V = prod(shape).
func (cs *CellSpace) VertexCount() int {
	return len(cs.nodeID)
}

// Neighbors returns the precomputed neighbor list of v. The returned slice
// is a view into CSR storage and must not be mutated or retained across a
// call that rebuilds adjacency (construction is the only such call).
func (cs *CellSpace) Neighbors(v int) []int32 {
	start, end := cs.csrOffsets[v], cs.csrOffsets[v+1]
	return cs.csrNeighbor[start:end]
}

// Edges visits every undirected edge exactly once (u<v), calling visit(u,v).
func (cs *CellSpace) Edges(visit func(u, v int32)) {
	for u := 0; u < len(cs.nodeID); u++ {
		for _, w := range cs.Neighbors(u) {
			if w > int32(u) {
				visit(int32(u), w)
			}
		}
	}
}

// NodeID returns the cell id occupying vertex v (0 == medium).
func (cs *CellSpace) NodeID(v int) uint32 { return cs.nodeID[v] }

// NodeType returns the cell type tag of vertex v (0 == medium type).
func (cs *CellSpace) NodeType(v int) uint32 { return cs.nodeType[v] }

// Set assigns vertex v's cell id and type in one write.
func (cs *CellSpace) Set(v int, id, typ uint32) {
	cs.nodeID[v] = id
	cs.nodeType[v] = typ
}

// GridShape returns the per-axis extents, copied defensively.
func (cs *CellSpace) GridShape() []int {
	return append([]int(nil), cs.shape...)
}

// IsPeriodic reports whether axis wraps.
func (cs *CellSpace) IsPeriodic(axis int) bool { return cs.periodic[axis] }

// Neighborhood reports the adjacency kind the space was built with.
func (cs *CellSpace) Neighborhood() Neighborhood { return cs.nbhd }

// ResetFrom overwrites cs's node id/type arrays with other's, in place.
// Both must share the same vertex count (same shape); used by history
// replay to reconstruct a snapshot into a reusable scratch lattice without
// reallocating on every call.
func (cs *CellSpace) ResetFrom(other *CellSpace) {
	copy(cs.nodeID, other.nodeID)
	copy(cs.nodeType, other.nodeType)
}

// Clone returns a deep copy of cs, sharing no mutable backing storage.
// Adjacency (topology) is immutable after construction and its slices are
// reused read-only; node id/type arrays are copied since those mutate every
// accepted copy attempt. Grounded on lvlath/core's UnweightedView /
// InducedSubgraph pattern of "build a fresh instance, never mutate the
// source."
func (cs *CellSpace) Clone() *CellSpace {
	out := &CellSpace{
		shape:       cs.shape,
		periodic:    cs.periodic,
		strides:     cs.strides,
		nbhd:        cs.nbhd,
		csrOffsets:  cs.csrOffsets,
		csrNeighbor: cs.csrNeighbor,
		nodeID:      append([]uint32(nil), cs.nodeID...),
		nodeType:    append([]uint32(nil), cs.nodeType...),
	}
	return out
}
