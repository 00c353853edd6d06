// Package engine implements MHEngine: the Metropolis-Hastings copy-attempt
// loop that drives a CPM simulation. Each attempt draws a target/source
// vertex pair, checks cell-identity and connectivity fast-fail conditions,
// evaluates the penalty kit's ΔH, and applies the Boltzmann acceptance
// rule — the same "propose, validate cheaply, evaluate expensively, accept
// or roll back" shape lvlath's builder package uses for graph construction
// options, generalized here to a stochastic accept/reject step.
package engine

import (
	"math"
	"math/rand"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/connectivity"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

// State owns everything one simulation run mutates: the lattice, the
// cell table, the penalty kit, connectivity scratch, the seeded RNG,
// temperature, and the running step counter. A History observer attaches
// itself via SetCommitObserver rather than this package importing
// history, keeping engine a leaf package.
type State struct {
	Lattice *lattice.CellSpace
	Table   *cellstate.CellTable
	Kit     *penalty.Kit

	guard *connectivity.Guard
	rng   *rand.Rand

	Temperature float64
	Step        uint64

	recording bool
	onCommit  func(info *penalty.StepInfo)
	tickHooks []func(lat *lattice.CellSpace, tbl *cellstate.CellTable)
}

// NewState wires a lattice, table, and penalty kit into a ready-to-run
// simulation state, seeding its RNG and allocating ConnectivityGuard's
// V-sized scratch once (spec.md §5: "never reallocated during a run").
func NewState(lat *lattice.CellSpace, tbl *cellstate.CellTable, kit *penalty.Kit, seed int64, temperature float64) *State {
	return &State{
		Lattice:     lat,
		Table:       tbl,
		Kit:         kit,
		guard:       connectivity.NewGuard(lat.VertexCount()),
		rng:         rngFromSeed(seed),
		Temperature: temperature,
	}
}

// SetTemperature overwrites the Boltzmann temperature used by every
// subsequent attempt's acceptance test.
func (s *State) SetTemperature(t float64) { s.Temperature = t }

// SetRecording toggles whether accepted attempts are forwarded to the
// observer registered via SetCommitObserver.
func (s *State) SetRecording(on bool) { s.recording = on }

// Recording reports the current recording flag.
func (s *State) Recording() bool { return s.recording }

// SetCommitObserver registers fn to be called, once per accepted attempt,
// with the StepInfo describing what committed — the hook history.Attach
// uses to append its log without engine depending on history.
func (s *State) SetCommitObserver(fn func(info *penalty.StepInfo)) { s.onCommit = fn }

// AddTickHook registers fn to run during ModelStep's tick phase, after
// every registered penalty's own OnTick. This lets a caller hang
// lightweight per-model-step logic (logging, adaptive temperature
// schedules, external field updates) off the engine without writing a
// full Penalty implementation just to get an OnTick callback.
func (s *State) AddTickHook(fn func(lat *lattice.CellSpace, tbl *cellstate.CellTable)) {
	s.tickHooks = append(s.tickHooks, fn)
}

// MHStep performs exactly one Metropolis-Hastings attempt, per spec.md
// §4.5's six-step algorithm, and returns the StepInfo describing it
// (Success reports whether it committed). stats may be nil.
func (s *State) MHStep(stats *Stats) *penalty.StepInfo {
	info := &penalty.StepInfo{Step: s.Step}

	t := int32(s.rng.Intn(s.Lattice.VertexCount()))
	neighbors := s.Lattice.Neighbors(int(t))
	if len(neighbors) == 0 {
		// An isolated vertex (degenerate 1x1 lattice) has no possible
		// source: nothing to attempt.
		return info
	}
	source := neighbors[s.rng.Intn(len(neighbors))]

	info.Source = source
	info.Target = t
	info.IDSource = s.Lattice.NodeID(int(source))
	info.IDTarget = s.Lattice.NodeID(int(t))
	info.TypeSource = s.Lattice.NodeType(int(source))
	info.TypeTarget = s.Lattice.NodeType(int(t))

	stats.recordAttempt()

	// Step 2: medium-to-medium and same-cell attempts fail fast.
	if info.IDSource == info.IDTarget {
		stats.recordIdentityReject()
		return info
	}

	// Step 3: connectivity / last-vertex guard. Medium is exempt.
	if info.IDTarget != cellstate.MediumID {
		if s.Table.Volume(info.IDTarget) <= 1 {
			stats.recordConnectivityReject()
			return info
		}
		if s.guard.WouldDisconnect(s.Lattice, t, info.IDTarget) {
			stats.recordConnectivityReject()
			return info
		}
	}

	// Step 4: total ΔH across every registered penalty.
	dh := s.Kit.DeltaH(s.Lattice, s.Table, info)

	// Step 5: Boltzmann acceptance.
	accept := dh <= 0
	if !accept {
		accept = s.rng.Float64() < math.Exp(-float64(dh)/s.Temperature)
	}
	if !accept {
		stats.recordEnergyReject()
		return info
	}

	// Step 6: commit.
	s.commit(info)
	stats.recordCommit()
	return info
}

// commit applies the accepted attempt's lattice write, updates volume and
// centroid bookkeeping on the two affected cells, lets every penalty fold
// in its own auxiliary state, and forwards to the commit observer if
// recording is enabled.
func (s *State) commit(info *penalty.StepInfo) {
	coord := s.Lattice.Coordinates(int(info.Target))
	coordF := make([]float64, len(coord))
	for i, c := range coord {
		coordF[i] = float64(c)
	}

	// Every vertex belongs to exactly one row, medium included: volume
	// bookkeeping always debits the target's row and credits the
	// source's row so Σ_c volume[c] == V is preserved exactly. Centroid
	// tracking is skipped for medium, whose position has no meaning.
	s.Table.AddVolume(info.IDTarget, -1)
	if info.IDTarget != cellstate.MediumID {
		s.Table.ReleasePoint(info.IDTarget, coordF, s.Table.Volume(info.IDTarget))
	}
	s.Table.AddVolume(info.IDSource, 1)
	if info.IDSource != cellstate.MediumID {
		s.Table.AbsorbPoint(info.IDSource, coordF, s.Table.Volume(info.IDSource))
	}

	s.Lattice.Set(int(info.Target), info.IDSource, info.TypeSource)
	s.Kit.OnCommit(s.Lattice, s.Table, info)

	info.Success = true
	if s.recording && s.onCommit != nil {
		s.onCommit(info)
	}
}

// ModelStep runs V Metropolis attempts (V = Lattice.VertexCount()),
// increments the step counter by one, then runs every penalty's OnTick
// strictly after all V attempts — spec.md §5's ordering guarantee.
func (s *State) ModelStep(stats *Stats) {
	v := s.Lattice.VertexCount()
	for i := 0; i < v; i++ {
		s.MHStep(stats)
	}
	s.Step++
	s.Kit.OnTick(s.Lattice, s.Table)
	for _, hook := range s.tickHooks {
		hook(s.Lattice, s.Table)
	}
}

// Run drives nSteps model steps, stopping early if cancel returns false.
// cancel is invoked between model steps (never mid-attempt) and is the
// sole cancellation mechanism; a nil cancel never stops the run early.
// Returns the number of model steps actually completed.
func (s *State) Run(nSteps int, stats *Stats, cancel func() bool) int {
	completed := 0
	for i := 0; i < nSteps; i++ {
		if cancel != nil && !cancel() {
			break
		}
		s.ModelStep(stats)
		completed++
	}
	return completed
}

// ArrayIDs returns a snapshot of every vertex's current cell id, in
// vertex index order.
func (s *State) ArrayIDs() []uint32 {
	out := make([]uint32, s.Lattice.VertexCount())
	for v := range out {
		out[v] = s.Lattice.NodeID(v)
	}
	return out
}

// ArrayTypes returns a snapshot of every vertex's current cell type, in
// vertex index order.
func (s *State) ArrayTypes() []uint32 {
	out := make([]uint32, s.Lattice.VertexCount())
	for v := range out {
		out[v] = s.Lattice.NodeType(v)
	}
	return out
}
