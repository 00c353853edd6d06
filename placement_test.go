package cpm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/internal/testfixtures"
	"github.com/cpmsim/cpm/lattice"
)

func TestNearestFreeVertexPicksClosestUnclaimedVertex(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{5, 5}, []bool{false, false}, lattice.VonNeumann)
	taken := make([]bool, lat.VertexCount())
	taken[lat.Index([]int{2, 2})] = true // the exact target is already claimed

	v, ok := nearestFreeVertex(lat, []float64{2, 2}, taken)
	require.True(t, ok)
	coord := lat.Coordinates(int(v))
	dist := 0
	for i, c := range coord {
		d := c - 2
		_ = i
		dist += d * d
	}
	require.LessOrEqual(t, dist, 1, "nearest free vertex to an already-taken target must be one step away")
}

func TestNearestFreeVertexReportsFalseWhenSaturated(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{2, 2}, []bool{false, false}, lattice.VonNeumann)
	taken := make([]bool, lat.VertexCount())
	for i := range taken {
		taken[i] = true
	}

	_, ok := nearestFreeVertex(lat, []float64{0, 0}, taken)
	require.False(t, ok)
}

func TestPlaceCellsGrowsEveryCellToItsDesiredVolume(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{8, 8}, []bool{false, false}, lattice.VonNeumann)
	tbl, ids := testfixtures.NewTable(2,
		cellstate.Record{Name: "a", TypeID: 1, DesiredVolume: 15},
		cellstate.Record{Name: "b", TypeID: 2, DesiredVolume: 15},
	)
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount())

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, placeCells(lat, tbl, rng))

	for _, id := range ids {
		require.Equal(t, 15, tbl.Volume(id))
	}
	require.Equal(t, lat.VertexCount()-30, tbl.Volume(cellstate.MediumID))
}

func TestNearestFreeVertexSkipsAPaintedBlock(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{6, 6}, []bool{false, false}, lattice.VonNeumann)
	tbl, ids := testfixtures.NewTable(2, cellstate.Record{Name: "blocker", TypeID: 1, DesiredVolume: 4})
	testfixtures.PaintBlock(lat, tbl, ids[0], 1, [][]int{{2, 2}, {2, 3}, {3, 2}, {3, 3}})

	taken := make([]bool, lat.VertexCount())
	for v := 0; v < lat.VertexCount(); v++ {
		taken[v] = lat.NodeID(v) != cellstate.MediumID
	}

	v, ok := nearestFreeVertex(lat, []float64{2.5, 2.5}, taken)
	require.True(t, ok)
	require.Equal(t, cellstate.MediumID, lat.NodeID(int(v)), "nearestFreeVertex must never return an already-occupied vertex")
}

func TestPlaceCellsErrorsWhenCapacityExceeded(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{4, 4}, []bool{false, false}, lattice.VonNeumann)
	tbl, _ := testfixtures.NewTable(2, cellstate.Record{Name: "big", TypeID: 1, DesiredVolume: 1000})
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount())

	rng := rand.New(rand.NewSource(1))
	err := placeCells(lat, tbl, rng)
	require.Error(t, err)
}

func TestPlaceCellsRecountsPerimeterAfterGrowth(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{8, 8}, []bool{false, false}, lattice.VonNeumann)
	tbl, ids := testfixtures.NewTable(2,
		cellstate.Record{Name: "a", TypeID: 1, DesiredVolume: 15},
		cellstate.Record{Name: "b", TypeID: 2, DesiredVolume: 15},
	)
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount())

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, placeCells(lat, tbl, rng))

	for _, id := range ids {
		want := 0
		for v := 0; v < lat.VertexCount(); v++ {
			if lat.NodeID(v) != id {
				continue
			}
			for _, n := range lat.Neighbors(v) {
				if lat.NodeID(int(n)) != id {
					want++
				}
			}
		}
		require.Equal(t, want, tbl.Perimeter(id), "perimeter must reflect a full recount, not stay at its zero-valued initial state")
		require.NotZero(t, tbl.Perimeter(id))
	}
}

func TestPlaceCellsRejectsOutOfRangePosition(t *testing.T) {
	t.Parallel()

	lat := testfixtures.NewLattice(t, []int{5, 5}, []bool{false, false}, lattice.VonNeumann)
	tbl, _ := testfixtures.NewTable(2, cellstate.Record{Name: "off-grid", TypeID: 1, DesiredVolume: 1, Position: []float64{5, 2}})
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount())

	rng := rand.New(rand.NewSource(1))
	err := placeCells(lat, tbl, rng)
	require.Error(t, err)
	require.ErrorIs(t, err, cpmerrors.ErrPlacement)
}
