package penalty

import (
	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
)

// VolumePenalty implements the volume-constraint term: a cell c with
// volume V_c and target V*_c contributes λ_{type(c)}·(V_c-V*_c)². λ is
// indexed by type id, 0 (medium) always mapping to 0.
type VolumePenalty struct {
	lambda []int64 // index 0 == medium == 0
}

// NewVolumePenalty shifts the caller's 1-indexed-by-convention λ vector
// (one entry per non-medium type) so index 0 maps to medium, per
// spec.md §9.
func NewVolumePenalty(lambda []int64) *VolumePenalty {
	return &VolumePenalty{lambda: shiftTypeVector(lambda)}
}

func sqTerm(volume int, desired float64) int64 {
	d := float64(volume) - desired
	return int64(d * d)
}

// DeltaH implements spec.md §4.3's Volume formula: the change when t
// switches from id(t) to id(s). Medium contributes zero unconditionally
// (λ[0]==0, and avoiding the +Inf desired-volume sentinel in arithmetic).
func (v *VolumePenalty) DeltaH(_ *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) int64 {
	var sum int64
	if info.IDSource != cellstate.MediumID {
		vol := tbl.Volume(info.IDSource)
		des := tbl.DesiredVolume(info.IDSource)
		sum += v.lambda[info.TypeSource] * (sqTerm(vol+1, des) - sqTerm(vol, des))
	}
	if info.IDTarget != cellstate.MediumID {
		vol := tbl.Volume(info.IDTarget)
		des := tbl.DesiredVolume(info.IDTarget)
		sum += v.lambda[info.TypeTarget] * (sqTerm(vol-1, des) - sqTerm(vol, des))
	}
	return sum
}

// OnCommit is a no-op: the engine itself applies the ±1 volume change to
// CellTable (trivial bookkeeping, not owned by this penalty).
func (v *VolumePenalty) OnCommit(*lattice.CellSpace, *cellstate.CellTable, *StepInfo) {}

// OnTick is a no-op: Volume carries no tick-driven auxiliary state.
func (v *VolumePenalty) OnTick(*lattice.CellSpace, *cellstate.CellTable) {}
