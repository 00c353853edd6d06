// Package penalty implements PenaltyKit: the family of pluggable energy
// terms whose sum drives Metropolis-Hastings acceptance. Each penalty
// computes the change in its own term (DeltaH) for one candidate copy
// attempt; the Kit composes them additively.
//
// Dispatch follows spec.md's design note on the "polymorphic penalty
// list": the five built-ins get fixed struct fields (monomorphized, no
// heap indirection on the hot path), with a slice overflow for any
// user-registered extra penalty — the same "fixed config plus functional
// extension" shape lvlath/builder uses for its BuilderOption list, applied
// here to energy terms instead of graph-construction options.
package penalty

import (
	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/lattice"
)

// StepInfo is the transient scratch describing one candidate copy
// attempt: source vertex s, target vertex t (whose id will be replaced),
// their current cell ids and types, the step counter, and the outcome.
// Engine populates it before evaluating penalties and updates Success
// once the attempt resolves.
type StepInfo struct {
	Source int32 // s
	Target int32 // t

	IDSource uint32 // id(s), before the attempt
	IDTarget uint32 // id(t), before the attempt

	TypeSource uint32 // cell type of IDSource
	TypeTarget uint32 // cell type of IDTarget

	Step    uint64
	Success bool
}

// Kind names the five built-in penalty variants. Kit itself dispatches by
// concrete type, not by Kind.
type Kind int

const (
	KindAdhesion Kind = iota
	KindVolume
	KindPerimeter
	KindMigration
	KindChemotaxis
)

// Penalty is implemented by every energy term, built-in or user-supplied.
type Penalty interface {
	// DeltaH returns the change in this term's contribution to H if the
	// candidate attempt in info were to be committed. Must be total: no
	// panics, regardless of input.
	DeltaH(lat *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) int64

	// OnCommit is called once an attempt is accepted, after the engine has
	// applied the volume table update and the lattice write. It lets a
	// penalty commit its own auxiliary state (Migration's memory,
	// Perimeter's scratch deltas, which are the only perimeter update).
	OnCommit(lat *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo)

	// OnTick is called once per ModelStep, after all V attempts of that
	// step, regardless of whether any given attempt committed.
	OnTick(lat *lattice.CellSpace, tbl *cellstate.CellTable)
}

// Kit composes a fixed set of built-in penalties plus any number of
// user-registered extras additively.
type Kit struct {
	adhesion   *AdhesionPenalty
	volume     *VolumePenalty
	perimeter  *PerimeterPenalty
	migration  *MigrationPenalty
	chemotaxis *ChemotaxisPenalty
	extra      []Penalty
}

// NewKit sorts the supplied penalties into their fixed slot (built-ins) or
// the overflow slice (anything else), preserving insertion order within
// the overflow slice.
func NewKit(penalties ...Penalty) *Kit {
	k := &Kit{}
	for _, p := range penalties {
		switch v := p.(type) {
		case *AdhesionPenalty:
			k.adhesion = v
		case *VolumePenalty:
			k.volume = v
		case *PerimeterPenalty:
			k.perimeter = v
		case *MigrationPenalty:
			k.migration = v
		case *ChemotaxisPenalty:
			k.chemotaxis = v
		default:
			k.extra = append(k.extra, p)
		}
	}
	return k
}

// DeltaH sums every registered penalty's contribution for the candidate
// described by info: total ΔH = Σ penalty_k.delta_h(...).
func (k *Kit) DeltaH(lat *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) int64 {
	var sum int64
	if k.adhesion != nil {
		sum += k.adhesion.DeltaH(lat, tbl, info)
	}
	if k.volume != nil {
		sum += k.volume.DeltaH(lat, tbl, info)
	}
	if k.perimeter != nil {
		sum += k.perimeter.DeltaH(lat, tbl, info)
	}
	if k.migration != nil {
		sum += k.migration.DeltaH(lat, tbl, info)
	}
	if k.chemotaxis != nil {
		sum += k.chemotaxis.DeltaH(lat, tbl, info)
	}
	for _, p := range k.extra {
		sum += p.DeltaH(lat, tbl, info)
	}
	return sum
}

// OnCommit forwards the commit hook to every registered penalty.
func (k *Kit) OnCommit(lat *lattice.CellSpace, tbl *cellstate.CellTable, info *StepInfo) {
	if k.adhesion != nil {
		k.adhesion.OnCommit(lat, tbl, info)
	}
	if k.volume != nil {
		k.volume.OnCommit(lat, tbl, info)
	}
	if k.perimeter != nil {
		k.perimeter.OnCommit(lat, tbl, info)
	}
	if k.migration != nil {
		k.migration.OnCommit(lat, tbl, info)
	}
	if k.chemotaxis != nil {
		k.chemotaxis.OnCommit(lat, tbl, info)
	}
	for _, p := range k.extra {
		p.OnCommit(lat, tbl, info)
	}
}

// OnTick forwards the per-model-step tick hook to every registered
// penalty, strictly after all V attempts of that step (spec.md §5).
func (k *Kit) OnTick(lat *lattice.CellSpace, tbl *cellstate.CellTable) {
	if k.adhesion != nil {
		k.adhesion.OnTick(lat, tbl)
	}
	if k.volume != nil {
		k.volume.OnTick(lat, tbl)
	}
	if k.perimeter != nil {
		k.perimeter.OnTick(lat, tbl)
	}
	if k.migration != nil {
		k.migration.OnTick(lat, tbl)
	}
	if k.chemotaxis != nil {
		k.chemotaxis.OnTick(lat, tbl)
	}
	for _, p := range k.extra {
		p.OnTick(lat, tbl)
	}
}

// shiftTypeVector prepends a zero for medium (index 0) to a user-supplied,
// 1-indexed-by-convention vector of length numTypes, per spec.md §9's
// "index 0 maps to medium" rule.
func shiftTypeVector(userVector []int64) []int64 {
	out := make([]int64, len(userVector)+1)
	copy(out[1:], userVector)
	return out
}
