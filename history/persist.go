package history

import (
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cpmsim/cpm/cpmerrors"
	"github.com/cpmsim/cpm/lattice"
)

// document is the YAML-serializable form of a History log: the initial
// lattice snapshot (shape, periodicity, neighborhood, and per-vertex
// id/type) plus the parallel entry columns. Grounded on config.Scenario's
// decode-into-plain-fields shape, applied here to a recorded run instead
// of a scenario description.
type document struct {
	Shape        []int              `yaml:"shape"`
	Periodic     []bool             `yaml:"periodic"`
	Neighborhood lattice.Neighborhood `yaml:"neighborhood"`
	InitialIDs   []uint32           `yaml:"initial_ids"`
	InitialTypes []uint32           `yaml:"initial_types"`

	Step    []uint64 `yaml:"step"`
	Vertex  []int32  `yaml:"vertex"`
	NewID   []uint32 `yaml:"new_id"`
	NewType []uint32 `yaml:"new_type"`

	Snapshots []string `yaml:"snapshots,omitempty"`
}

// Marshal serializes h, initial snapshot included, into the YAML
// round-trip format spec.md §6 calls out as "recommended for replay
// across processes" — implemented outright here rather than left as a
// recommendation, per SPEC_FULL.md's supplement.
func (h *History) Marshal() ([]byte, error) {
	v := h.initial.VertexCount()
	shape := h.initial.GridShape()

	doc := document{
		Shape:        shape,
		Periodic:     make([]bool, len(shape)),
		Neighborhood: h.initial.Neighborhood(),
		InitialIDs:   make([]uint32, v),
		InitialTypes: make([]uint32, v),
		Step:         h.step,
		Vertex:       h.vertex,
		NewID:        h.newID,
		NewType:      h.newType,
	}
	for axis := range doc.Periodic {
		doc.Periodic[axis] = h.initial.IsPeriodic(axis)
	}
	for vertex := 0; vertex < v; vertex++ {
		doc.InitialIDs[vertex] = h.initial.NodeID(vertex)
		doc.InitialTypes[vertex] = h.initial.NodeType(vertex)
	}
	if h.withSnapshots {
		doc.Snapshots = make([]string, len(h.snapshotUUID))
		for i, id := range h.snapshotUUID {
			doc.Snapshots[i] = id.String()
		}
	}
	return yaml.Marshal(doc)
}

// Unmarshal reconstructs a History from bytes produced by Marshal. The
// initial lattice is rebuilt from its recorded shape, periodicity, and
// neighborhood rather than requiring the caller to supply one, so a log
// round-trips across processes on its own.
func Unmarshal(data []byte) (*History, error) {
	const op = "history.Unmarshal"

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, err)
	}

	initial, err := lattice.New(doc.Shape, doc.Periodic, doc.Neighborhood)
	if err != nil {
		return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, -1, err)
	}
	for vertex := range doc.InitialIDs {
		initial.Set(vertex, doc.InitialIDs[vertex], doc.InitialTypes[vertex])
	}

	h := &History{
		initial: initial,
		step:    doc.Step,
		vertex:  doc.Vertex,
		newID:   doc.NewID,
		newType: doc.NewType,
	}
	if len(doc.Snapshots) == 0 {
		return h, nil
	}

	h.withSnapshots = true
	h.snapshotUUID = make([]uuid.UUID, len(doc.Snapshots))
	for i, s := range doc.Snapshots {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, cpmerrors.Wrap(cpmerrors.ErrConfiguration, op, i, err)
		}
		h.snapshotUUID[i] = id
	}
	return h, nil
}
