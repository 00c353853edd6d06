package penalty

import (
	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
)

// PerimeterPenalty implements the perimeter-constraint term, the same
// squared-deviation shape as VolumePenalty but on boundary-edge counts.
// Maintains scratch counters for the net perimeter change each of the two
// affected cells would undergo, computed by inspecting N(t) and flipping
// the boundary-edge indicator for each neighbor, per spec.md §4.3.
type PerimeterPenalty struct {
	lambda []int64 // index 0 == medium == 0

	// scratch from the most recent DeltaH call, committed into the table
	// by OnCommit if (and only if) the engine accepts that same attempt.
	// Safe because a single simulation state is never mutated concurrently
	// (spec.md §5) and the engine always evaluates DeltaH immediately
	// before deciding whether to call OnCommit for the same StepInfo.
	scratchSourceDelta int
	scratchTargetDelta int
}

// NewPerimeterPenalty shifts the caller's 1-indexed-by-convention λ
// vector so index 0 maps to medium.
func NewPerimeterPenalty(lambda []int64) *PerimeterPenalty {
	return &PerimeterPenalty{lambda: shiftTypeVector(lambda)}
}

// perimeterDeltas computes how much the source cell's and target cell's
// perimeter change if vertex t flips from idTarget to idSource. For each
// neighbor u of t, an edge (t,u) flips its boundary-edge status for each
// of the two cells depending on NodeID(u):
//
//	before: edge(idTarget, NodeID(u)) ; after: edge(idSource, NodeID(u))
//
// idTarget gains a boundary edge wherever NodeID(u)==idTarget (an edge
// that was internal to idTarget becomes a boundary once t leaves), and
// loses one wherever NodeID(u)!=idTarget was true before and is no longer
// relevant to idTarget at all. idSource's accounting is the mirror image.
func perimeterDeltas(lat *lattice.CellSpace, t int32, idSource, idTarget uint32) (deltaSource, deltaTarget int) {
	for _, u := range lat.Neighbors(int(t)) {
		nu := lat.NodeID(int(u))

		beforeTarget := 0
		if nu != idTarget {
			beforeTarget = 1
		}
		afterTarget := 0
		if nu == idTarget {
			afterTarget = 1
		}
		deltaTarget += afterTarget - beforeTarget

		beforeSource := 0
		if nu == idSource {
			beforeSource = 1
		}
		afterSource := 0
		if nu != idSource {
			afterSource = 1
		}
		deltaSource += afterSource - beforeSource
	}
	return deltaSource, deltaTarget
}

// DeltaH implements spec.md §4.3's Perimeter formula using the same
// squared-deviation shape as VolumePenalty, driven by the scratch deltas
// computed above.
func (p *PerimeterPenalty) DeltaH(lat *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) int64 {
	p.scratchSourceDelta, p.scratchTargetDelta = perimeterDeltas(lat, info.Target, info.IDSource, info.IDTarget)

	var sum int64
	if info.IDSource != cellstate.MediumID {
		per := tbl.Perimeter(info.IDSource)
		des := tbl.DesiredPerimeter(info.IDSource)
		sum += p.lambda[info.TypeSource] * (sqTerm(per+p.scratchSourceDelta, des) - sqTerm(per, des))
	}
	if info.IDTarget != cellstate.MediumID {
		per := tbl.Perimeter(info.IDTarget)
		des := tbl.DesiredPerimeter(info.IDTarget)
		sum += p.lambda[info.TypeTarget] * (sqTerm(per+p.scratchTargetDelta, des) - sqTerm(per, des))
	}
	return sum
}

// OnCommit folds the scratch deltas computed by the immediately preceding
// DeltaH call into the table, per spec.md's "on acceptance, commit these
// deltas into the table."
func (p *PerimeterPenalty) OnCommit(_ *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) {
	if info.IDSource != cellstate.MediumID {
		tbl.AddPerimeter(info.IDSource, p.scratchSourceDelta)
	}
	if info.IDTarget != cellstate.MediumID {
		tbl.AddPerimeter(info.IDTarget, p.scratchTargetDelta)
	}
}

// OnTick is a no-op: Perimeter carries no tick-driven auxiliary state.
func (p *PerimeterPenalty) OnTick(*lattice.CellSpace, *cellstate.CellTable) {}
