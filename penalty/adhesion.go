package penalty

import (
	"fmt"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/lattice"
)

// AdhesionPenalty implements the contact-energy term. J is a symmetric
// matrix of contact energies indexed by type id, where index 0 is medium
// (the caller supplies J already sized (numTypes+1)x(numTypes+1), medium
// row/col included, as spec.md's own worked example does).
type AdhesionPenalty struct {
	j [][]int64
}

// NewAdhesionPenalty validates that J is square and symmetric and returns
// a ready-to-use penalty. Grounded on lvlath/matrix's validators.go
// eager-validate-at-construction convention.
func NewAdhesionPenalty(j [][]int64) (*AdhesionPenalty, error) {
	const op = "penalty.NewAdhesionPenalty"
	n := len(j)
	if n == 0 {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, fmt.Errorf("J is empty"))
	}
	for i, row := range j {
		if len(row) != n {
			return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
				fmt.Errorf("J is not square: row %d has %d entries, want %d", i, len(row), n))
		}
	}
	for i := 0; i < n; i++ {
		for k := i + 1; k < n; k++ {
			if j[i][k] != j[k][i] {
				return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
					fmt.Errorf("J is not symmetric at (%d,%d)=%d vs (%d,%d)=%d", i, k, j[i][k], k, i, j[k][i]))
			}
		}
	}
	cp := make([][]int64, n)
	for i, row := range j {
		cp[i] = append([]int64(nil), row...)
	}
	return &AdhesionPenalty{j: cp}, nil
}

func (a *AdhesionPenalty) contact(typeA, typeB uint32) int64 {
	return a.j[typeA][typeB]
}

// DeltaH implements spec.md §4.3's Adhesion formula: for the target
// vertex t with neighbor set N(t),
//
//	ΔH = Σ_{u∈N(t)} [J(type(s),type(u))·[id(s)≠id(u)] − J(type(t),type(u))·[id(t)≠id(u)]]
func (a *AdhesionPenalty) DeltaH(lat *lattice.CellSpace, _ *cellstate.CellTable, info *StepInfo) int64 {
	var sum int64
	for _, u := range lat.Neighbors(int(info.Target)) {
		nu := lat.NodeID(int(u))
		tu := lat.NodeType(int(u))

		var sourceTerm, targetTerm int64
		if nu != info.IDSource {
			sourceTerm = a.contact(info.TypeSource, tu)
		}
		if nu != info.IDTarget {
			targetTerm = a.contact(info.TypeTarget, tu)
		}
		sum += sourceTerm - targetTerm
	}
	return sum
}

// OnCommit is a no-op: Adhesion carries no auxiliary state.
func (a *AdhesionPenalty) OnCommit(*lattice.CellSpace, *cellstate.CellTable, *StepInfo) {}

// OnTick is a no-op: Adhesion carries no auxiliary state.
func (a *AdhesionPenalty) OnTick(*lattice.CellSpace, *cellstate.CellTable) {}
