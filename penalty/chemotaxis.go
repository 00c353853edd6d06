package penalty

import (
	"fmt"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/lattice"
)

// ChemotaxisPenalty implements the species-gradient term. Field is an
// N-D real array aligned with the lattice (flattened in the lattice's own
// row-major vertex order), owned by an external collaborator and possibly
// mutated between steps; ChemotaxisPenalty only ever reads it.
type ChemotaxisPenalty struct {
	lambda []int64 // index 0 == medium == 0
	field  []float64
}

// NewChemotaxisPenalty validates that field's length matches the
// lattice's vertex count and shifts the caller's λ vector per spec.md §9.
func NewChemotaxisPenalty(lambda []int64, field []float64, lat *lattice.CellSpace) (*ChemotaxisPenalty, error) {
	const op = "penalty.NewChemotaxisPenalty"
	if len(field) != lat.VertexCount() {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
			fmt.Errorf("species field has %d entries, lattice has %d vertices", len(field), lat.VertexCount()))
	}
	return &ChemotaxisPenalty{lambda: shiftTypeVector(lambda), field: field}, nil
}

// DeltaH implements spec.md's Chemotaxis formula:
//
//	ΔH = λ_{type(s)}·(species[t] − species[s]) if id(s)≠0, else 0.
//
// With positive λ, a copy into a target of higher species than its source
// raises ΔH, so extension up the gradient is penalized and extension down
// it is favored; negative λ reverses this. A medium source contributes
// zero.
func (c *ChemotaxisPenalty) DeltaH(_ *lattice.CellSpace, _ *cellstate.CellTable, info *StepInfo) int64 {
	if info.IDSource == cellstate.MediumID {
		return 0
	}
	delta := c.field[info.Target] - c.field[info.Source]
	return int64(float64(c.lambda[info.TypeSource]) * delta)
}

// OnCommit is a no-op: Chemotaxis owns no auxiliary state; the field
// itself is owned externally.
func (c *ChemotaxisPenalty) OnCommit(*lattice.CellSpace, *cellstate.CellTable, *StepInfo) {}

// OnTick is a no-op: Chemotaxis owns no auxiliary state.
func (c *ChemotaxisPenalty) OnTick(*lattice.CellSpace, *cellstate.CellTable) {}
