package lattice

// index maps an N-D coordinate to a row-major vertex index, the
// N-dimensional generalization of gridgraph.index's y*Width+x.
// Complexity: O(ndim).
func (cs *CellSpace) index(coord []int) int {
	idx := 0
	for axis, stride := range cs.strides {
		idx += coord[axis] * stride
	}
	return idx
}

// Index is the exported form of index, for callers (cellstate centroids,
// placement, CLI rendering) that need to go from a coordinate to a vertex.
func (cs *CellSpace) Index(coord []int) int {
	return cs.index(coord)
}

// coordinatesInto decomposes a row-major vertex index into dst, avoiding an
// allocation on the per-vertex hot path in buildAdjacency.
func (cs *CellSpace) coordinatesInto(v int, dst []int) {
	rem := v
	for axis, stride := range cs.strides {
		dst[axis] = rem / stride
		rem -= dst[axis] * stride
	}
}

// Coordinates is the exported, allocating form of coordinatesInto, the
// N-dimensional generalization of gridgraph.Coordinate.
func (cs *CellSpace) Coordinates(v int) []int {
	coord := make([]int, len(cs.shape))
	cs.coordinatesInto(v, coord)
	return coord
}
