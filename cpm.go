package cpm

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/cpmsim/cpm/cellstate"
	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/engine"
	"github.com/cpmsim/cpm/history"
	"github.com/cpmsim/cpm/lattice"
	"github.com/cpmsim/cpm/penalty"
)

// Re-exported constructors (spec.md §6's library surface): callers build
// a lattice and the five built-in penalties through this package alone
// instead of importing every leaf package directly.
var (
	NewCellSpace         = lattice.New
	NewAdhesionPenalty   = penalty.NewAdhesionPenalty
	NewVolumePenalty     = penalty.NewVolumePenalty
	NewPerimeterPenalty  = penalty.NewPerimeterPenalty
	NewMigrationPenalty  = penalty.NewMigrationPenalty
	NewChemotaxisPenalty = penalty.NewChemotaxisPenalty
)

// VonNeumann and Moore re-export the two neighborhood kinds.
const (
	VonNeumann = lattice.VonNeumann
	Moore      = lattice.Moore
)

// CellState builds a CellTable with one row per requested cell plus the
// medium row. names may hold a single entry, broadcast across every row
// (spec.md §6: "names may be a single symbol broadcast across counts").
// desiredPerimeters and positions are optional; shorter than
// desiredVolumes simply leaves the remaining rows at their zero value.
func CellState(ndim int, names []string, typeIDs []uint32, desiredVolumes []float64, desiredPerimeters []float64, positions [][]float64) (*cellstate.CellTable, error) {
	const op = "cpm.CellState"

	n := len(desiredVolumes)
	if n == 0 {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, fmt.Errorf("no cells requested"))
	}
	if len(names) != 1 && len(names) != n {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
			fmt.Errorf("names has %d entries, want 1 or %d", len(names), n))
	}
	if len(typeIDs) != n {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
			fmt.Errorf("type_ids has %d entries, want %d", len(typeIDs), n))
	}
	nameAt := func(i int) string {
		if len(names) == 1 {
			return names[0]
		}
		return names[i]
	}

	tbl := cellstate.New(ndim)
	for i := 0; i < n; i++ {
		rec := cellstate.Record{Name: nameAt(i), TypeID: typeIDs[i], DesiredVolume: desiredVolumes[i]}
		if i < len(desiredPerimeters) {
			rec.DesiredPerimeter = desiredPerimeters[i]
		}
		if i < len(positions) {
			rec.Position = positions[i]
		}
		tbl.AddCell(rec)
	}
	return tbl, nil
}

// Simulation is the full CPM run: the lattice, the cell table, and the
// MH engine wired together, plus an optional history log. This is what
// spec.md §6 calls "the simulation state."
type Simulation struct {
	Lattice *lattice.CellSpace
	Table   *cellstate.CellTable

	state *engine.State
	hist  *history.History
}

// Option customizes CellPotts construction.
type Option func(*cellPottsConfig)

type cellPottsConfig struct {
	seed             int64
	temperature      float64
	recordHistory    bool
	historySnapshots bool
}

// WithSeed sets the reproducible RNG seed shared (via independent
// derived substreams) by placement and the MH engine.
func WithSeed(seed int64) Option {
	return func(c *cellPottsConfig) { c.seed = seed }
}

// WithTemperature sets the initial Boltzmann temperature.
func WithTemperature(t float64) Option {
	return func(c *cellPottsConfig) { c.temperature = t }
}

// WithHistory enables recording from construction onward. snapshots
// gates the optional per-entry UUID column.
func WithHistory(snapshots bool) Option {
	return func(c *cellPottsConfig) {
		c.recordHistory = true
		c.historySnapshots = snapshots
	}
}

// CellPotts wires a lattice, an initial cell table, and a penalty list
// into a ready-to-run Simulation. Initial cells are placed by the
// deterministic seed-and-grow routine described in spec.md §6, using an
// RNG substream independent of the MH engine's own.
func CellPotts(space *lattice.CellSpace, tbl *cellstate.CellTable, penalties []penalty.Penalty, opts ...Option) (*Simulation, error) {
	cfg := &cellPottsConfig{temperature: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	tbl.AddVolume(cellstate.MediumID, space.VertexCount())
	placementRNG := rand.New(rand.NewSource(engine.DeriveSeed(cfg.seed, 0)))
	if err := placeCells(space, tbl, placementRNG); err != nil {
		return nil, err
	}

	kit := penalty.NewKit(penalties...)
	st := engine.NewState(space, tbl, kit, cfg.seed, cfg.temperature)

	sim := &Simulation{Lattice: space, Table: tbl, state: st}
	sim.hist = history.New(space, cfg.historySnapshots)
	sim.hist.Attach(st)
	st.SetRecording(cfg.recordHistory)
	return sim, nil
}

// MHStep performs one Metropolis-Hastings attempt.
func (s *Simulation) MHStep() *penalty.StepInfo { return s.state.MHStep(nil) }

// ModelStep runs V attempts and one round of penalty ticks.
func (s *Simulation) ModelStep() { s.state.ModelStep(nil) }

// Run drives n model steps, stopping early if cancel returns false
// (cancel may be nil).
func (s *Simulation) Run(n int, cancel func() bool) int { return s.state.Run(n, nil, cancel) }

// CountCells returns the number of live non-medium cells.
func (s *Simulation) CountCells() int { return s.Table.CountCells() }

// CountCellTypes returns the number of distinct live non-medium cell types.
func (s *Simulation) CountCellTypes() int { return s.Table.CountCellTypes() }

// ArrayIDs snapshots every vertex's current cell id.
func (s *Simulation) ArrayIDs() []uint32 { return s.state.ArrayIDs() }

// ArrayTypes snapshots every vertex's current cell type.
func (s *Simulation) ArrayTypes() []uint32 { return s.state.ArrayTypes() }

// LatticeAt reconstructs the lattice at model step t into scratch
// (obtained from NewReplayScratch).
func (s *Simulation) LatticeAt(scratch *lattice.CellSpace, t int64) (*lattice.CellSpace, error) {
	return s.hist.LatticeAt(scratch, t)
}

// NewReplayScratch allocates a lattice suitable for repeated LatticeAt calls.
func (s *Simulation) NewReplayScratch() *lattice.CellSpace {
	return s.hist.NewScratch()
}

// MarshalHistory serializes the simulation's history log (initial
// snapshot and every recorded entry) for replay in another process.
func (s *Simulation) MarshalHistory() ([]byte, error) {
	return s.hist.Marshal()
}

// SetRecording toggles whether accepted attempts append to the history log.
func (s *Simulation) SetRecording(on bool) { s.state.SetRecording(on) }

// SetTemperature overwrites the Boltzmann temperature used by every
// subsequent attempt.
func (s *Simulation) SetTemperature(t float64) { s.state.SetTemperature(t) }

// AddTickHook registers fn to run after every model step's penalty ticks,
// without requiring a full Penalty implementation.
func (s *Simulation) AddTickHook(fn func(lat *lattice.CellSpace, tbl *cellstate.CellTable)) {
	s.state.AddTickHook(fn)
}

// Describe returns a one-line human-readable summary of the simulation's
// current state: live cell count, mean committed volume across live
// cells, the current Boltzmann temperature, and the model step counter.
func (s *Simulation) Describe() string {
	n := s.Table.CountCells()
	var meanVolume float64
	if n > 0 {
		volumes := make([]float64, 0, n)
		s.Table.IterateRows(func(id uint32) bool {
			if id != cellstate.MediumID {
				volumes = append(volumes, float64(s.Table.Volume(id)))
			}
			return true
		})
		meanVolume = stat.Mean(volumes, nil)
	}
	return fmt.Sprintf("cells=%d mean_volume=%.2f temperature=%.2f step=%d",
		n, meanVolume, s.state.Temperature, s.state.Step)
}
