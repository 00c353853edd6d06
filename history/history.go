// Package history implements History/Replay: an append-only log of every
// accepted copy attempt and a point-in-time lattice reconstruction.
//
// The five parallel slices are lvlath/matrix's column-of-arrays idiom
// applied to a log instead of a dense array: each entry's step/vertex/
// new-id/new-type columns are independently appendable, and replay walks
// them in log order the way dfs.DFS walks a visit order, generalized
// here from "visit a graph" to "replay a log into a scratch lattice."
package history

import (
	"github.com/google/uuid"

	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/engine"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

// History is an append-only log of accepted copy attempts: step index,
// vertex index, new node_id, new node_type, and an optional per-entry
// snapshot UUID. Invariant: step is non-decreasing across entries.
type History struct {
	step    []uint64
	vertex  []int32
	newID   []uint32
	newType []uint32

	withSnapshots bool
	snapshotUUID  []uuid.UUID

	initial *lattice.CellSpace // preserved, never mutated after New
}

// New preserves a defensive clone of initial — the lattice's state
// before the first recorded attempt — and starts an empty log.
// withSnapshots gates the optional per-entry UUID column.
func New(initial *lattice.CellSpace, withSnapshots bool) *History {
	return &History{initial: initial.Clone(), withSnapshots: withSnapshots}
}

// Attach registers h.append as st's commit observer: every attempt st
// commits while recording is enabled is logged automatically. Attach does
// not itself toggle recording; callers still drive that with
// st.SetRecording, per spec.md's separate record(state, on/off) op.
func (h *History) Attach(st *engine.State) {
	st.SetCommitObserver(h.append)
}

func (h *History) append(info *penalty.StepInfo) {
	h.step = append(h.step, info.Step)
	h.vertex = append(h.vertex, info.Target)
	h.newID = append(h.newID, info.IDSource)
	h.newType = append(h.newType, info.TypeSource)
	if h.withSnapshots {
		h.snapshotUUID = append(h.snapshotUUID, uuid.New())
	}
}

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.step) }

func (h *History) StepAt(i int) uint64    { return h.step[i] }
func (h *History) VertexAt(i int) int32   { return h.vertex[i] }
func (h *History) NewIDAt(i int) uint32   { return h.newID[i] }
func (h *History) NewTypeAt(i int) uint32 { return h.newType[i] }

// SnapshotUUIDAt returns the UUID stamped on entry i. Only populated when
// History was constructed with withSnapshots=true.
func (h *History) SnapshotUUIDAt(i int) uuid.UUID { return h.snapshotUUID[i] }

// NewScratch allocates a lattice suitable for repeated LatticeAt calls,
// seeded from the preserved initial snapshot. Callers reuse the same
// scratch across many LatticeAt calls to keep replay allocation-free.
func (h *History) NewScratch() *lattice.CellSpace {
	return h.initial.Clone()
}

// LatticeAt reconstructs the lattice at step t into scratch (which must
// share the original shape — NewScratch guarantees this), by resetting
// scratch to the preserved initial snapshot and replaying every log entry
// with step<=t in log order. Returns scratch itself — allocation-free
// across repeated calls, but the caller must Clone() the result to retain
// a snapshot past the next LatticeAt call. t<0 is rejected.
func (h *History) LatticeAt(scratch *lattice.CellSpace, t int64) (*lattice.CellSpace, error) {
	const op = "history.LatticeAt"
	if t < 0 {
		return nil, cpmerrors.Wrap(cpmerrors.ErrInvalidOperation, op, -1, nil)
	}

	scratch.ResetFrom(h.initial)
	for i, step := range h.step {
		if int64(step) > t {
			break
		}
		scratch.Set(int(h.vertex[i]), h.newID[i], h.newType[i])
	}
	return scratch, nil
}
