package config

import "context"

// GraphVersion is the only graph document version this engine accepts.
const GraphVersion = "graph.v1"

// Model is the unified representation of everything the loaders found:
// block-type definitions (the catalog) and the user's graph document.
type Model struct {
	Definitions map[string]*BlockDefinition
	Graph       *Graph
}

// NewModel returns an empty model ready to be populated by a loader.
func NewModel() *Model {
	return &Model{Definitions: make(map[string]*BlockDefinition)}
}

// Graph is a declared block graph. It is immutable once planning begins.
type Graph struct {
	Version string
	// Nodes in declaration order. Declaration order is load-bearing: it is
	// the tie-breaker for topological scheduling and the fallback order for
	// cyclic graphs.
	Nodes       []*NodeDecl
	Connections []*Connection
	// ExecutionOrder, when non-empty, overrides computed scheduling.
	ExecutionOrder []string
	Run            RunConfig
}

// NodeDecl is one declared block instance in a graph document.
type NodeDecl struct {
	ID   string
	Type string
	// Params holds per-instance overrides of the type's declared defaults.
	Params map[string]any
}

// Connection wires a source endpoint to a destination endpoint, both in
// "blockId.portName" form.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RunConfig is the run configuration carried by a graph document and
// persisted per run. RunID is assigned at planning time.
type RunConfig struct {
	RunID       string         `json:"run_id,omitempty"`
	DurationSec int            `json:"duration_sec"`
	Hz          int            `json:"hz"`
	Viewer      bool           `json:"viewer"`
	Overrides   map[string]any `json:"overrides"`
}

// Normalize fills in the defaults the original document left unset.
func (rc *RunConfig) Normalize() {
	if rc.DurationSec <= 0 {
		rc.DurationSec = 10
	}
	if rc.Hz <= 0 {
		rc.Hz = 20
	}
	if rc.Overrides == nil {
		rc.Overrides = map[string]any{}
	}
}

// Ticks returns the number of tick iterations a run of this configuration
// executes.
func (rc *RunConfig) Ticks() int {
	return rc.DurationSec * rc.Hz
}

// BlockDefinition is one catalog entry: the declared shape of a block type.
type BlockDefinition struct {
	Type        string
	Description string
	// Category tags the block's role (sim, sensor, control, logging, ...).
	// The executor uses it to pick the primary metric channel.
	Category string
	Inputs   []*PortDefinition
	Outputs  []*PortDefinition
	Params   []*ParamDefinition
	// Factory names the registered construction identifier for the type.
	Factory string
}

// Input returns the named input port definition, or nil.
func (d *BlockDefinition) Input(name string) *PortDefinition {
	return findPort(d.Inputs, name)
}

// Output returns the named output port definition, or nil.
func (d *BlockDefinition) Output(name string) *PortDefinition {
	return findPort(d.Outputs, name)
}

func findPort(ports []*PortDefinition, name string) *PortDefinition {
	for _, p := range ports {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PortDefinition declares one named, directional data slot on a block type.
type PortDefinition struct {
	Name string
	// Type is the message type tag this port carries. Empty means untyped:
	// connection type checking is skipped for that end.
	Type string
	// Required marks an input port that every instance must have connected.
	Required bool
}

// ParamDefinition declares one parameter and its default value.
type ParamDefinition struct {
	Name    string
	Default any
}

// Loader is implemented by each format-specific configuration adapter.
type Loader interface {
	// Load reads every config file under the given paths, translates it into
	// the format-agnostic model, and merges the result into a single Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Merge folds another model into m. Later definitions for the same type win,
// and a graph in other replaces any graph already present.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	for name, def := range other.Definitions {
		m.Definitions[name] = def
	}
	if other.Graph != nil {
		m.Graph = other.Graph
	}
}
