// Package config implements the YAML scenario descriptor: lattice shape,
// periodicity and neighborhood, initial cell rows, penalty parameters,
// seed, temperature, and step budget for one CPM run.
//
// Parsing follows lvlath/builder's resolve-then-validate shape: decode
// the document into plain fields first with gopkg.in/yaml.v3, then walk
// every field once and reject anything nonsensical before any
// constructor runs, so a bad scenario fails at load time rather than
// mid-run.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/lattice"
)

// LatticeConfig describes CellSpace's constructor arguments.
type LatticeConfig struct {
	Shape        []int  `yaml:"shape"`
	Periodic     []bool `yaml:"periodic"`
	Neighborhood string `yaml:"neighborhood"` // "von-neumann" (default) or "moore"
}

// CellConfig describes one initial CellTable row.
type CellConfig struct {
	Name             string    `yaml:"name"`
	TypeID           uint32    `yaml:"type_id"`
	DesiredVolume    float64   `yaml:"desired_volume"`
	DesiredPerimeter float64   `yaml:"desired_perimeter"`
	Position         []float64 `yaml:"position,omitempty"`
}

// AdhesionConfig mirrors AdhesionPenalty(J): J already includes the
// medium row/column, per spec.md's own worked example.
type AdhesionConfig struct {
	J [][]int64 `yaml:"j"`
}

// VolumeConfig, PerimeterConfig, MigrationConfig, ChemotaxisConfig carry
// 1-indexed-by-convention λ vectors, shifted by the penalty constructors
// themselves so index 0 maps to medium (spec.md §9).
type VolumeConfig struct {
	Lambda []int64 `yaml:"lambda"`
}

type PerimeterConfig struct {
	Lambda []int64 `yaml:"lambda"`
}

type MigrationConfig struct {
	MaxAct int     `yaml:"max_act"`
	Lambda []int64 `yaml:"lambda"`
}

// ChemotaxisConfig carries only λ; the species field itself is an
// external real array supplied by reference at construction (spec.md
// §6's Environment note), not serialized into the scenario document.
type ChemotaxisConfig struct {
	Lambda []int64 `yaml:"lambda"`
}

// PenaltiesConfig lists the subset of the five built-in penalties this
// scenario enables; any entry left nil is simply not registered with
// the kit.
type PenaltiesConfig struct {
	Adhesion   *AdhesionConfig   `yaml:"adhesion,omitempty"`
	Volume     *VolumeConfig     `yaml:"volume,omitempty"`
	Perimeter  *PerimeterConfig  `yaml:"perimeter,omitempty"`
	Migration  *MigrationConfig  `yaml:"migration,omitempty"`
	Chemotaxis *ChemotaxisConfig `yaml:"chemotaxis,omitempty"`
}

// HistoryConfig controls recording at scenario load time. Correlate
// mirrors spec.md's optional `history.correlate` flag (start recording
// immediately); Snapshots gates the optional per-entry UUID column.
type HistoryConfig struct {
	Correlate bool `yaml:"correlate"`
	Snapshots bool `yaml:"snapshots"`
}

// Scenario is the YAML-serializable description of one CPM run.
type Scenario struct {
	Lattice     LatticeConfig   `yaml:"lattice"`
	Cells       []CellConfig    `yaml:"cells"`
	Penalties   PenaltiesConfig `yaml:"penalties"`
	Seed        int64           `yaml:"seed"`
	Temperature float64         `yaml:"temperature"`
	Steps       int             `yaml:"steps"`
	History     HistoryConfig   `yaml:"history"`
}

// Parse decodes and eagerly validates a YAML scenario document.
func Parse(doc []byte) (*Scenario, error) {
	const op = "config.Parse"
	var sc Scenario
	if err := yaml.Unmarshal(doc, &sc); err != nil {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) neighborhoodKind() (lattice.Neighborhood, error) {
	switch sc.Lattice.Neighborhood {
	case "", "von-neumann":
		return lattice.VonNeumann, nil
	case "moore":
		return lattice.Moore, nil
	default:
		return 0, fmt.Errorf("unknown neighborhood %q", sc.Lattice.Neighborhood)
	}
}

// Neighborhood is the exported accessor for the resolved neighborhood
// kind; callers use it only after Parse has already validated it.
func (sc *Scenario) Neighborhood() lattice.Neighborhood {
	n, _ := sc.neighborhoodKind()
	return n
}

func (sc *Scenario) validate() error {
	const op = "config.Scenario.validate"

	if len(sc.Lattice.Shape) == 0 {
		return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, fmt.Errorf("lattice.shape is empty"))
	}
	for axis, extent := range sc.Lattice.Shape {
		if extent <= 0 {
			return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
				fmt.Errorf("lattice.shape axis %d: non-positive extent %d", axis, extent))
		}
	}
	if _, err := sc.neighborhoodKind(); err != nil {
		return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, err)
	}

	numTypes := 0
	seenTypes := map[uint32]bool{}
	for i, c := range sc.Cells {
		if c.DesiredVolume <= 0 {
			return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, i,
				fmt.Errorf("cell %q: desired_volume must be positive", c.Name))
		}
		if !seenTypes[c.TypeID] {
			seenTypes[c.TypeID] = true
			numTypes++
		}
	}

	checkLambda := func(name string, lambda []int64) error {
		if len(lambda) < numTypes {
			return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
				fmt.Errorf("%s.lambda has %d entries, need >= %d declared types", name, len(lambda), numTypes))
		}
		return nil
	}
	if sc.Penalties.Volume != nil {
		if err := checkLambda("volume", sc.Penalties.Volume.Lambda); err != nil {
			return err
		}
	}
	if sc.Penalties.Perimeter != nil {
		if err := checkLambda("perimeter", sc.Penalties.Perimeter.Lambda); err != nil {
			return err
		}
	}
	if sc.Penalties.Migration != nil {
		if err := checkLambda("migration", sc.Penalties.Migration.Lambda); err != nil {
			return err
		}
		if sc.Penalties.Migration.MaxAct < 1 {
			return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
				fmt.Errorf("migration.max_act must be >= 1, got %d", sc.Penalties.Migration.MaxAct))
		}
	}
	if sc.Penalties.Chemotaxis != nil {
		if err := checkLambda("chemotaxis", sc.Penalties.Chemotaxis.Lambda); err != nil {
			return err
		}
	}
	if sc.Penalties.Adhesion != nil {
		n := len(sc.Penalties.Adhesion.J)
		for i, row := range sc.Penalties.Adhesion.J {
			if len(row) != n {
				return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1,
					fmt.Errorf("adhesion.j row %d has %d entries, want %d", i, len(row), n))
			}
		}
	}

	if sc.Steps < 0 {
		return cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, fmt.Errorf("steps must be non-negative, got %d", sc.Steps))
	}
	return nil
}
