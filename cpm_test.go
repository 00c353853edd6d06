package cpm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmsim/cpm"
	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

func TestCellStateBroadcastsSingleName(t *testing.T) {
	t.Parallel()

	tbl, err := cpm.CellState(2, []string{"epithelial"}, []uint32{1, 1}, []float64{25, 25}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.NumRows()) // medium + 2 cells
	require.Equal(t, "epithelial", tbl.Name(1))
	require.Equal(t, "epithelial", tbl.Name(2))
}

func TestCellStateRejectsMismatchedNames(t *testing.T) {
	t.Parallel()

	_, err := cpm.CellState(2, []string{"a", "b"}, []uint32{1, 1, 1}, []float64{1, 1, 1}, nil, nil)
	require.Error(t, err)
}

func TestCellStateRejectsNoCells(t *testing.T) {
	t.Parallel()

	_, err := cpm.CellState(2, []string{"a"}, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestCellStateAppliesOptionalPerimeterAndPosition(t *testing.T) {
	t.Parallel()

	tbl, err := cpm.CellState(2,
		[]string{"a", "b"},
		[]uint32{1, 2},
		[]float64{10, 10},
		[]float64{12}, // shorter than desiredVolumes: second row keeps the zero value
		[][]float64{{1, 2}},
	)
	require.NoError(t, err)
	require.Equal(t, float64(12), tbl.DesiredPerimeter(1))
	require.Equal(t, float64(0), tbl.DesiredPerimeter(2))
	require.Equal(t, []float64{1, 2}, tbl.Position(1))
	require.Equal(t, []float64{0, 0}, tbl.Position(2))
}

func buildSim(t *testing.T, opts ...cpm.Option) (*cpm.Simulation, uint32, uint32) {
	t.Helper()

	space, err := cpm.NewCellSpace([]int{10, 10}, []bool{false, false}, cpm.VonNeumann)
	require.NoError(t, err)
	tbl, err := cpm.CellState(2, []string{"a", "b"}, []uint32{1, 2}, []float64{10, 10}, nil, nil)
	require.NoError(t, err)

	j, err := cpm.NewAdhesionPenalty([][]int64{{0, 10, 10}, {10, 0, 20}, {10, 20, 0}})
	require.NoError(t, err)
	vol := cpm.NewVolumePenalty([]int64{5, 5})

	sim, err := cpm.CellPotts(space, tbl, []penalty.Penalty{j, vol}, opts...)
	require.NoError(t, err)
	return sim, 1, 2
}

func TestCellPottsPlacesRandomlySeededCellsWithoutOverlap(t *testing.T) {
	t.Parallel()

	sim, cellA, cellB := buildSim(t, cpm.WithSeed(5))
	require.Equal(t, 10, sim.Table.Volume(cellA))
	require.Equal(t, 10, sim.Table.Volume(cellB))
	require.Equal(t, sim.Lattice.VertexCount()-20, sim.Table.Volume(cellstate.MediumID))

	seen := map[int]uint32{}
	for v := 0; v < sim.Lattice.VertexCount(); v++ {
		if id := sim.Lattice.NodeID(v); id != cellstate.MediumID {
			seen[v] = id
		}
	}
	require.Len(t, seen, 20, "every placed vertex must carry exactly one cell id")
}

func TestCellPottsPlacesPositionedCellNearestRequestedVertex(t *testing.T) {
	t.Parallel()

	space, err := cpm.NewCellSpace([]int{10, 10}, []bool{false, false}, cpm.VonNeumann)
	require.NoError(t, err)
	tbl, err := cpm.CellState(2, []string{"anchored"}, []uint32{1}, []float64{1}, nil, [][]float64{{7, 7}})
	require.NoError(t, err)

	sim, err := cpm.CellPotts(space, tbl, nil, cpm.WithSeed(1))
	require.NoError(t, err)

	seeded := -1
	for v := 0; v < sim.Lattice.VertexCount(); v++ {
		if sim.Lattice.NodeID(v) != cellstate.MediumID {
			seeded = v
		}
	}
	require.Equal(t, sim.Lattice.Index([]int{7, 7}), seeded,
		"a single-vertex cell with a requested position must seed exactly there")
}

func TestCellPottsRejectsOversizedDesiredVolumes(t *testing.T) {
	t.Parallel()

	space, err := cpm.NewCellSpace([]int{3, 3}, []bool{false, false}, cpm.VonNeumann)
	require.NoError(t, err)
	tbl, err := cpm.CellState(2, []string{"huge"}, []uint32{1}, []float64{100}, nil, nil)
	require.NoError(t, err)

	_, err = cpm.CellPotts(space, tbl, nil, cpm.WithSeed(1))
	require.Error(t, err)
}

func TestSimulationRunAdvancesStepsAndKeepsVolumeInvariant(t *testing.T) {
	t.Parallel()

	sim, cellA, cellB := buildSim(t, cpm.WithSeed(9), cpm.WithTemperature(20))
	completed := sim.Run(25, nil)
	require.Equal(t, 25, completed)

	total := sim.Table.Volume(cellA) + sim.Table.Volume(cellB) + sim.Table.Volume(cellstate.MediumID)
	require.Equal(t, sim.Lattice.VertexCount(), total)
	require.Equal(t, 2, sim.CountCells())
	require.Equal(t, 2, sim.CountCellTypes())
}

func TestSimulationHistoryReplayMatchesLiveLattice(t *testing.T) {
	t.Parallel()

	sim, _, _ := buildSim(t, cpm.WithSeed(3), cpm.WithHistory(false))
	sim.Run(15, nil)

	scratch := sim.NewReplayScratch()
	replayed, err := sim.LatticeAt(scratch, 14)
	require.NoError(t, err)
	for v := 0; v < sim.Lattice.VertexCount(); v++ {
		require.Equal(t, sim.Lattice.NodeID(v), replayed.NodeID(v), "vertex %d", v)
	}
}

func TestSimulationSetRecordingTogglesWithoutError(t *testing.T) {
	t.Parallel()

	sim, _, _ := buildSim(t, cpm.WithSeed(2))
	sim.SetRecording(true)
	sim.MHStep()
	sim.SetRecording(false)
	sim.SetTemperature(5)
	sim.ModelStep()
}

func TestSimulationDescribeReportsCensusAndTemperature(t *testing.T) {
	t.Parallel()

	sim, _, _ := buildSim(t, cpm.WithSeed(6), cpm.WithTemperature(12))
	desc := sim.Describe()
	require.Contains(t, desc, "cells=2")
	require.Contains(t, desc, "mean_volume=10.00")
	require.Contains(t, desc, "temperature=12.00")
	require.Contains(t, desc, "step=0")
}

func TestSimulationAddTickHookRunsAfterEveryModelStep(t *testing.T) {
	t.Parallel()

	sim, _, _ := buildSim(t, cpm.WithSeed(8))
	ticks := 0
	sim.AddTickHook(func(*lattice.CellSpace, *cellstate.CellTable) {
		ticks++
	})
	sim.Run(4, nil)
	require.Equal(t, 4, ticks)
}

func TestSimulationArraysReflectLatticeAfterRun(t *testing.T) {
	t.Parallel()

	sim, _, _ := buildSim(t, cpm.WithSeed(4))
	sim.Run(5, nil)

	ids := sim.ArrayIDs()
	types := sim.ArrayTypes()
	require.Equal(t, sim.Lattice.VertexCount(), len(ids))
	require.Equal(t, sim.Lattice.VertexCount(), len(types))
	for v := range ids {
		require.Equal(t, sim.Lattice.NodeID(v), ids[v])
		require.Equal(t, sim.Lattice.NodeType(v), types[v])
	}
}
