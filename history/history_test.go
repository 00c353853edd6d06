package history_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/engine"
	"github.com/cpmsim/cpm/history"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

func buildRun(t *testing.T, seed int64) (*lattice.CellSpace, *history.History, *engine.State) {
	t.Helper()

	lat, err := lattice.New([]int{6, 6}, []bool{true, true}, lattice.VonNeumann)
	require.NoError(t, err)
	tbl := cellstate.New(2)
	cellID := tbl.AddCell(cellstate.Record{TypeID: 1, DesiredVolume: 12})
	for r := 1; r <= 2; r++ {
		for c := 1; c <= 2; c++ {
			lat.Set(lat.Index([]int{r, c}), cellID, 1)
		}
	}
	tbl.AddVolume(cellID, 4)
	tbl.AddVolume(cellstate.MediumID, lat.VertexCount()-4)

	j, err := penalty.NewAdhesionPenalty([][]int64{{0, 20}, {20, 0}})
	require.NoError(t, err)
	kit := penalty.NewKit(j, penalty.NewVolumePenalty([]int64{5}))

	st := engine.NewState(lat, tbl, kit, seed, 15)
	h := history.New(lat, false)
	h.Attach(st)
	st.SetRecording(true)
	return lat, h, st
}

func TestHistoryStepColumnIsNonDecreasing(t *testing.T) {
	t.Parallel()

	_, h, st := buildRun(t, 5)
	var stats engine.Stats
	for i := 0; i < 20; i++ {
		st.ModelStep(&stats)
	}

	prev := uint64(0)
	for i := 0; i < h.Len(); i++ {
		require.GreaterOrEqual(t, h.StepAt(i), prev)
		prev = h.StepAt(i)
	}
}

func TestLatticeAtReproducesLiveLatticeAtLastStep(t *testing.T) {
	t.Parallel()

	lat, h, st := buildRun(t, 5)
	var stats engine.Stats
	for i := 0; i < 20; i++ {
		st.ModelStep(&stats)
	}

	scratch := h.NewScratch()
	replayed, err := h.LatticeAt(scratch, int64(st.Step-1))
	require.NoError(t, err)
	for v := 0; v < lat.VertexCount(); v++ {
		require.Equal(t, lat.NodeID(v), replayed.NodeID(v), "vertex %d id mismatch", v)
		require.Equal(t, lat.NodeType(v), replayed.NodeType(v), "vertex %d type mismatch", v)
	}
}

func TestLatticeAtRejectsNegativeTime(t *testing.T) {
	t.Parallel()

	_, h, st := buildRun(t, 5)
	var stats engine.Stats
	for i := 0; i < 10; i++ {
		st.ModelStep(&stats)
	}

	scratch := h.NewScratch()
	_, err := h.LatticeAt(scratch, -1)
	require.Error(t, err)
}

func TestReplayDeterminismAcrossIndependentSnapshots(t *testing.T) {
	t.Parallel()

	_, h, st := buildRun(t, 123)
	var stats engine.Stats

	snapshots := make([]*lattice.CellSpace, 0, 10)
	for i := 0; i < 10; i++ {
		st.ModelStep(&stats)
		snapshots = append(snapshots, st.Lattice.Clone())
	}

	scratch := h.NewScratch()
	for i, want := range snapshots {
		got, err := h.LatticeAt(scratch, int64(i))
		require.NoError(t, err)
		for v := 0; v < want.VertexCount(); v++ {
			require.Equal(t, want.NodeID(v), got.NodeID(v), "step %d vertex %d", i, v)
		}
	}
}
