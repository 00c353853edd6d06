// Package cellstate implements CellTable: column-oriented storage of
// per-cell state (volume, perimeter, desired volume/perimeter, type, name,
// centroid position, and user extensions).
//
// The column-of-slices layout is the cache-locality idiom lvlath/matrix
// applies to a single flat []float64 (Dense), generalized here to a row
// of heterogeneously-typed required columns plus an opaque per-row
// extension map, the way a real columnar table keeps every column
// independently scannable for the vector updates MHEngine performs every
// accepted step.
package cellstate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cpmsim/cpm/cpmerrors"
)

// MediumID is the reserved cell id for the background region.
const MediumID uint32 = 0

// Record describes a cell at construction time.
type Record struct {
	Name             string
	TypeID           uint32
	DesiredVolume    float64
	DesiredPerimeter float64 // PerimeterPenalty treats 0 as a target like any other value
	Position         []float64
	Extra            map[string]any
}

// CellTable is a column-oriented mapping from cell-id in [0..K] to a
// per-cell record. Row 0 is always the medium row.
type CellTable struct {
	ndim int

	names            []string
	typeID           []uint32
	volume           []int
	desiredVolume    []float64
	perimeter        []int
	desiredPerimeter []float64
	position         [][]float64
	extra            []map[string]any
	removed          []bool
}

// New creates a CellTable for an ndim-dimensional lattice with only the
// medium row (id 0) populated: volume is filled in by the caller once the
// lattice is painted, desired_volume is the +Inf sentinel spec.md
// prescribes ("penalty contribution is zero").
func New(ndim int) *CellTable {
	t := &CellTable{ndim: ndim}
	t.names = append(t.names, "medium")
	t.typeID = append(t.typeID, 0)
	t.volume = append(t.volume, 0)
	t.desiredVolume = append(t.desiredVolume, math.Inf(1))
	t.perimeter = append(t.perimeter, 0)
	t.desiredPerimeter = append(t.desiredPerimeter, math.Inf(1))
	t.position = append(t.position, make([]float64, ndim))
	t.extra = append(t.extra, map[string]any{})
	t.removed = append(t.removed, false)
	return t
}

// AddCell appends a new row and returns its assigned id.
func (t *CellTable) AddCell(rec Record) uint32 {
	id := uint32(len(t.names))
	t.names = append(t.names, rec.Name)
	t.typeID = append(t.typeID, rec.TypeID)
	t.volume = append(t.volume, 0)
	t.desiredVolume = append(t.desiredVolume, rec.DesiredVolume)
	t.perimeter = append(t.perimeter, 0)
	t.desiredPerimeter = append(t.desiredPerimeter, rec.DesiredPerimeter)
	pos := make([]float64, t.ndim)
	if rec.Position != nil {
		copy(pos, rec.Position)
	}
	t.position = append(t.position, pos)
	extra := map[string]any{}
	for k, v := range rec.Extra {
		extra[k] = v
	}
	t.extra = append(t.extra, extra)
	t.removed = append(t.removed, false)
	return id
}

// RemoveCell deletes cell id, which must currently have zero volume.
func (t *CellTable) RemoveCell(id uint32) error {
	const op = "cellstate.RemoveCell"
	if id == MediumID {
		return cpmerrors.Wrap(cpmerrors.ErrInvalidOperation, op, int(id), nil)
	}
	if int(id) >= len(t.names) || t.removed[id] {
		return cpmerrors.Wrap(cpmerrors.ErrInvalidOperation, op, int(id), nil)
	}
	if t.volume[id] != 0 {
		return cpmerrors.Wrap(cpmerrors.ErrInvalidOperation, op, int(id), nil)
	}
	t.removed[id] = true
	t.names[id] = ""
	t.typeID[id] = 0
	t.extra[id] = map[string]any{}
	return nil
}

// NumRows returns len([0..K]), including medium and any removed tombstones.
func (t *CellTable) NumRows() int { return len(t.names) }

// IsRemoved reports whether id has been removed (or was never assigned).
func (t *CellTable) IsRemoved(id uint32) bool {
	if int(id) >= len(t.names) {
		return true
	}
	return t.removed[id]
}

// IterateRows visits every live row (medium included) in id order, stopping
// early if fn returns false. Grounded on lvlath/dfs's visit-hook style:
// the hook controls continuation, not the traversal.
func (t *CellTable) IterateRows(fn func(id uint32) bool) {
	for id := 0; id < len(t.names); id++ {
		if t.removed[id] {
			continue
		}
		if !fn(uint32(id)) {
			return
		}
	}
}

// CountCells returns the number of live non-medium cells.
func (t *CellTable) CountCells() int {
	n := 0
	t.IterateRows(func(id uint32) bool {
		if id != MediumID {
			n++
		}
		return true
	})
	return n
}

// CountCellTypes returns the number of distinct type ids among live
// non-medium cells.
func (t *CellTable) CountCellTypes() int {
	seen := map[uint32]struct{}{}
	t.IterateRows(func(id uint32) bool {
		if id != MediumID {
			seen[t.typeID[id]] = struct{}{}
		}
		return true
	})
	return len(seen)
}

func (t *CellTable) Name(id uint32) string             { return t.names[id] }
func (t *CellTable) TypeID(id uint32) uint32            { return t.typeID[id] }
func (t *CellTable) Volume(id uint32) int               { return t.volume[id] }
func (t *CellTable) DesiredVolume(id uint32) float64     { return t.desiredVolume[id] }
func (t *CellTable) Perimeter(id uint32) int             { return t.perimeter[id] }
func (t *CellTable) DesiredPerimeter(id uint32) float64  { return t.desiredPerimeter[id] }
func (t *CellTable) Position(id uint32) []float64        { return t.position[id] }
func (t *CellTable) Extra(id uint32, key string) any     { return t.extra[id][key] }

func (t *CellTable) SetTypeID(id uint32, v uint32)           { t.typeID[id] = v }
func (t *CellTable) SetExtra(id uint32, key string, v any)   { t.extra[id][key] = v }

// AddVolume adjusts cell id's volume by delta (may be negative). Saturates
// at zero rather than going negative, per spec.md's "saturate, never
// crash" rule for programming-error-induced overflow.
func (t *CellTable) AddVolume(id uint32, delta int) {
	v := t.volume[id] + delta
	if v < 0 {
		v = 0
	}
	t.volume[id] = v
}

// AddPerimeter adjusts cell id's perimeter by delta, saturating at zero.
func (t *CellTable) AddPerimeter(id uint32, delta int) {
	p := t.perimeter[id] + delta
	if p < 0 {
		p = 0
	}
	t.perimeter[id] = p
}

// SetPerimeter overwrites cell id's perimeter outright (used by the
// full-recount path after non-MH lattice mutations).
func (t *CellTable) SetPerimeter(id uint32, p int) {
	t.perimeter[id] = p
}

// AbsorbPoint incrementally folds coord into cell id's centroid after its
// volume has already been incremented to newVolume, using the standard
// online-mean update (pos += (coord-pos)/newVolume). Vector arithmetic
// goes through gonum/floats, the one place cellstate takes a direct gonum
// dependency (see SPEC_FULL.md).
func (t *CellTable) AbsorbPoint(id uint32, coord []float64, newVolume int) {
	if newVolume <= 0 {
		return
	}
	pos := t.position[id]
	delta := make([]float64, len(pos))
	floats.SubTo(delta, coord, pos)
	floats.Scale(1/float64(newVolume), delta)
	floats.Add(pos, delta)
}

// ReleasePoint is AbsorbPoint's inverse, applied after volume has already
// been decremented to remainingVolume. remainingVolume==0 resets the
// centroid to the origin (an empty cell has no meaningful position).
func (t *CellTable) ReleasePoint(id uint32, coord []float64, remainingVolume int) {
	pos := t.position[id]
	if remainingVolume <= 0 {
		for i := range pos {
			pos[i] = 0
		}
		return
	}
	delta := make([]float64, len(pos))
	floats.SubTo(delta, pos, coord)
	floats.Scale(1/float64(remainingVolume), delta)
	floats.Add(pos, delta)
}
