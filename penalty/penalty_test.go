package penalty_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

func smallLattice(t *testing.T) *lattice.CellSpace {
	t.Helper()
	lat, err := lattice.New([]int{3, 3}, []bool{false, false}, lattice.VonNeumann)
	require.NoError(t, err)
	return lat
}

func TestAdhesionRejectsNonSymmetric(t *testing.T) {
	t.Parallel()

	_, err := penalty.NewAdhesionPenalty([][]int64{{0, 1}, {2, 0}})
	require.Error(t, err)
}

func TestAdhesionDeltaH(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	cellID := tbl.AddCell(cellstate.Record{TypeID: 1, DesiredVolume: 5})

	center := lat.Index([]int{1, 1})
	for _, v := range append([]int32{int32(center)}, lat.Neighbors(center)...) {
		lat.Set(int(v), cellID, 1)
	}
	// Surround one neighbor with medium by reverting it.
	north := lat.Neighbors(center)[0]
	lat.Set(int(north), cellstate.MediumID, 0)

	j, err := penalty.NewAdhesionPenalty([][]int64{{0, 20}, {20, 0}})
	require.NoError(t, err)

	info := &penalty.StepInfo{
		Source: int32(center), Target: north,
		IDSource: cellID, IDTarget: cellstate.MediumID,
		TypeSource: 1, TypeTarget: 0,
	}
	dh := j.DeltaH(lat, tbl, info)
	require.NotEqual(t, int64(0), dh)
}

func TestVolumePenaltyPullsTowardDesired(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	cellID := tbl.AddCell(cellstate.Record{TypeID: 1, DesiredVolume: 2})
	tbl.AddVolume(cellID, 1) // currently below desired volume

	v := penalty.NewVolumePenalty([]int64{10})
	info := &penalty.StepInfo{
		IDSource: cellID, IDTarget: cellstate.MediumID,
		TypeSource: 1, TypeTarget: 0,
	}
	dh := v.DeltaH(lat, tbl, info)
	require.Less(t, dh, int64(0), "growing toward the desired volume should lower H")
}

func TestVolumePenaltyMediumContributesZero(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	v := penalty.NewVolumePenalty([]int64{10})
	info := &penalty.StepInfo{
		IDSource: cellstate.MediumID, IDTarget: cellstate.MediumID,
		TypeSource: 0, TypeTarget: 0,
	}
	require.Equal(t, int64(0), v.DeltaH(lat, tbl, info))
}

func TestPerimeterPenaltyCommitsScratchDeltas(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	cellID := tbl.AddCell(cellstate.Record{TypeID: 1, DesiredVolume: 5, DesiredPerimeter: 4})
	tbl.SetPerimeter(cellID, 4)

	center := int32(lat.Index([]int{1, 1}))
	lat.Set(int(center), cellID, 1)
	target := lat.Neighbors(int(center))[0]

	p := penalty.NewPerimeterPenalty([]int64{5})
	info := &penalty.StepInfo{
		Source: center, Target: target,
		IDSource: cellID, IDTarget: cellstate.MediumID,
		TypeSource: 1, TypeTarget: 0,
	}
	_ = p.DeltaH(lat, tbl, info)
	before := tbl.Perimeter(cellID)
	p.OnCommit(lat, tbl, info)
	require.NotEqual(t, before, tbl.Perimeter(cellID))
}

func TestMigrationPenaltyEmptyNeighborhoodIsZero(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	m := penalty.NewMigrationPenalty(20, []int64{200}, []int{3, 3})

	info := &penalty.StepInfo{
		Source: 0, Target: 1,
		IDSource: cellstate.MediumID, IDTarget: cellstate.MediumID,
		TypeSource: 0, TypeTarget: 0,
	}
	require.Equal(t, int64(0), m.DeltaH(lat, tbl, info))
}

func TestMigrationPenaltyOnCommitAndTick(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	m := penalty.NewMigrationPenalty(20, []int64{200}, []int{3, 3})
	info := &penalty.StepInfo{Target: 4}

	m.OnCommit(lat, nil, info)
	require.Equal(t, 20, m.Memory(4))

	m.OnTick(lat, nil)
	require.Equal(t, 19, m.Memory(4))

	m.OnTick(lat, nil)
	m.OnTick(lat, nil)
	// ... many ticks later memory floors at 0, never negative.
	for i := 0; i < 30; i++ {
		m.OnTick(lat, nil)
	}
	require.Equal(t, 0, m.Memory(4))
}

func TestChemotaxisUphillDownhill(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	field := make([]float64, lat.VertexCount())
	for v := range field {
		field[v] = float64(v)
	}
	c, err := penalty.NewChemotaxisPenalty([]int64{100}, field, lat)
	require.NoError(t, err)

	info := &penalty.StepInfo{
		Source: 0, Target: 5,
		IDSource: 1, IDTarget: cellstate.MediumID,
		TypeSource: 1, TypeTarget: 0,
	}
	dh := c.DeltaH(lat, tbl, info)
	require.Greater(t, dh, int64(0), "positive λ raises ΔH when the target has higher species than the source")
}

func TestChemotaxisFieldShapeMismatch(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	_, err := penalty.NewChemotaxisPenalty([]int64{1}, []float64{1, 2, 3}, lat)
	require.Error(t, err)
}

func TestKitSumsAcrossPenalties(t *testing.T) {
	t.Parallel()

	lat := smallLattice(t)
	tbl := cellstate.New(2)
	cellID := tbl.AddCell(cellstate.Record{TypeID: 1, DesiredVolume: 5})
	tbl.AddVolume(cellID, 1)

	v := penalty.NewVolumePenalty([]int64{10})
	kit := penalty.NewKit(v)

	info := &penalty.StepInfo{IDSource: cellID, IDTarget: cellstate.MediumID, TypeSource: 1, TypeTarget: 0}
	require.Equal(t, v.DeltaH(lat, tbl, info), kit.DeltaH(lat, tbl, info))
}
