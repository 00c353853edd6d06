package penalty

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
)

// MigrationPenalty implements the "Act" model (spec.md §4.3, §9): each
// vertex carries a memory in [0, MaxAct]; a freshly-copied vertex is
// transiently preferred as a future source of further change.
type MigrationPenalty struct {
	maxAct int
	lambda []int64 // index 0 == medium == 0

	memory []int // per-vertex memory, sized V at construction
}

// NewMigrationPenalty sizes node_memory to the vertex count implied by
// shape (the lattice's own grid shape — Migration must track one memory
// value per vertex, so it needs V at construction time), shifts the
// caller's λ vector per spec.md §9, and raises a maxAct below 1 to 1.
func NewMigrationPenalty(maxAct int, lambda []int64, shape []int) *MigrationPenalty {
	v := 1
	for _, extent := range shape {
		v *= extent
	}
	if maxAct < 1 {
		maxAct = 1
	}
	return &MigrationPenalty{
		maxAct: maxAct,
		lambda: shiftTypeVector(lambda),
		memory: make([]int, v),
	}
}

// geometricMeanInCell returns the geometric mean of node_memory over the
// subset of N(x)∪{x} whose current cell id equals cell. An empty subset
// contributes 0 (spec.md §9's resolution of the Open Question), not 1 and
// not a skip.
func (m *MigrationPenalty) geometricMeanInCell(lat *lattice.CellSpace, x int32, cell uint32) float64 {
	values := make([]float64, 0, 9)
	if lat.NodeID(int(x)) == cell {
		values = append(values, float64(m.memory[x]))
	}
	for _, u := range lat.Neighbors(int(x)) {
		if lat.NodeID(int(u)) == cell {
			values = append(values, float64(m.memory[u]))
		}
	}
	if len(values) == 0 {
		return 0
	}
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = 1
	}
	return stat.GeometricMean(values, weights)
}

// DeltaH implements spec.md's Migration formula:
//
//	ΔH = −(λ_{type(s)}/max_act)·GM(t in cell of s) + (λ_{type(t)}/max_act)·GM(s in cell of t)
//
// computed by scaling the numerator by max_act and rounding toward zero.
func (m *MigrationPenalty) DeltaH(lat *lattice.CellSpace, _ *cellstate.CellTable, info *StepInfo) int64 {
	gmTInCellS := m.geometricMeanInCell(lat, info.Target, info.IDSource)
	gmSInCellT := m.geometricMeanInCell(lat, info.Source, info.IDTarget)

	numerator := -float64(m.lambda[info.TypeSource])*gmTInCellS + float64(m.lambda[info.TypeTarget])*gmSInCellT
	return int64(math.Trunc(numerator / float64(m.maxAct)))
}

// OnCommit sets the just-copied vertex's memory to MaxAct.
func (m *MigrationPenalty) OnCommit(_ *lattice.CellSpace, _ *cellstate.CellTable, info *StepInfo) {
	m.memory[info.Target] = m.maxAct
}

// OnTick decrements every positive memory by 1, floor 0, once per
// ModelStep after all V attempts.
func (m *MigrationPenalty) OnTick(*lattice.CellSpace, *cellstate.CellTable) {
	for i, v := range m.memory {
		if v > 0 {
			m.memory[i] = v - 1
		}
	}
}

// Memory exposes the current per-vertex memory (read-only view) for
// observers and tests.
func (m *MigrationPenalty) Memory(v int) int { return m.memory[v] }
