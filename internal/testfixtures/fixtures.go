// Package testfixtures centralizes small, deterministic constructors used
// across this module's package tests, so a lattice/table pairing doesn't
// get hand-rolled slightly differently in every _test.go file.
package testfixtures

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
)

// NewLattice builds a CellSpace and fails the test immediately on error,
// so call sites can stay a single line.
func NewLattice(t *testing.T, shape []int, periodic []bool, nbhd lattice.Neighborhood) *lattice.CellSpace {
	t.Helper()
	lat, err := lattice.New(shape, periodic, nbhd)
	require.NoError(t, err)
	return lat
}

// NewTable builds a CellTable with one row per record, in order.
func NewTable(ndim int, records ...cellstate.Record) (*cellstate.CellTable, []uint32) {
	tbl := cellstate.New(ndim)
	ids := make([]uint32, len(records))
	for i, rec := range records {
		ids[i] = tbl.AddCell(rec)
	}
	return tbl, ids
}

// PaintBlock sets every vertex in coords to id/typeID on lat, folds each
// point into tbl's volume and centroid bookkeeping, and backfills medium's
// volume for the remaining vertices. Intended for tests that need a
// pre-seeded solid region without going through the seed-and-grow
// placement routine.
func PaintBlock(lat *lattice.CellSpace, tbl *cellstate.CellTable, id, typeID uint32, coords [][]int) {
	for _, c := range coords {
		v := lat.Index(c)
		lat.Set(v, id, typeID)
		coordF := make([]float64, len(c))
		for i, x := range c {
			coordF[i] = float64(x)
		}
		tbl.AddVolume(id, 1)
		tbl.AbsorbPoint(id, coordF, tbl.Volume(id))
	}
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount()-len(coords))
}
