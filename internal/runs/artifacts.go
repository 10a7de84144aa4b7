package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/planner"
)

// Artifact file names inside a run directory.
const (
	GraphFile          = "graph.json"
	ResolvedBlocksFile = "resolved_blocks.json"
	PlanFile           = "plan.json"
	RunConfigFile      = "run_config.json"
	MetricsFile        = "metrics.json"
	logsDirName        = "logs"
)

// Dir is one allocated run directory.
type Dir struct {
	Path string
}

// LogsDir returns the directory observation logs are written under.
func (d Dir) LogsDir() string {
	return filepath.Join(d.Path, logsDirName)
}

// GraphDoc is the normalized graph document persisted as graph.json.
type GraphDoc struct {
	Version        string               `json:"version"`
	Nodes          []GraphNode          `json:"nodes"`
	Connections    []*config.Connection `json:"connections"`
	ExecutionOrder []string             `json:"execution_order,omitempty"`
	Run            config.RunConfig     `json:"run_config"`
}

// GraphNode is one node of the persisted graph document.
type GraphNode struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// NewGraphDoc converts the in-memory graph model to its persisted form.
func NewGraphDoc(g *config.Graph) *GraphDoc {
	doc := &GraphDoc{
		Version:        g.Version,
		Connections:    g.Connections,
		ExecutionOrder: g.ExecutionOrder,
		Run:            g.Run,
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, GraphNode{ID: n.ID, Type: n.Type, Params: n.Params})
	}
	return doc
}

// Metrics is the run metrics document written once at finalization.
type Metrics struct {
	RunID          string  `json:"run_id,omitempty"`
	DurationSec    int     `json:"duration_sec"`
	Hz             int     `json:"hz"`
	Ticks          int     `json:"ticks"`
	FinalX         float64 `json:"final_x"`
	MaxX           float64 `json:"max_x"`
	GoalReached    bool    `json:"goal_reached"`
	Viewer         bool    `json:"viewer"`
	MetricsChannel string  `json:"metrics_channel"`
}

// WriteGraph persists the normalized graph document.
func (d Dir) WriteGraph(doc *GraphDoc) error {
	return writeJSON(filepath.Join(d.Path, GraphFile), doc)
}

// WriteResolvedBlocks persists the resolved block list.
func (d Dir) WriteResolvedBlocks(blocks []*catalog.ResolvedBlock) error {
	return writeJSON(filepath.Join(d.Path, ResolvedBlocksFile), blocks)
}

// WritePlan persists the plan document.
func (d Dir) WritePlan(p *planner.Plan) error {
	return writeJSON(filepath.Join(d.Path, PlanFile), p)
}

// WriteRunConfig persists the run configuration.
func (d Dir) WriteRunConfig(rc *config.RunConfig) error {
	return writeJSON(filepath.Join(d.Path, RunConfigFile), rc)
}

// WriteMetrics persists the run metrics.
func (d Dir) WriteMetrics(m *Metrics) error {
	return writeJSON(filepath.Join(d.Path, MetricsFile), m)
}

// ReadResolvedBlocks loads the resolved block list back from disk.
func (d Dir) ReadResolvedBlocks() ([]*catalog.ResolvedBlock, error) {
	var blocks []*catalog.ResolvedBlock
	if err := readJSON(filepath.Join(d.Path, ResolvedBlocksFile), &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ReadPlan loads the plan document back from disk.
func (d Dir) ReadPlan() (*planner.Plan, error) {
	var p planner.Plan
	if err := readJSON(filepath.Join(d.Path, PlanFile), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadRunConfig loads the run configuration back from disk.
func (d Dir) ReadRunConfig() (*config.RunConfig, error) {
	var rc config.RunConfig
	if err := readJSON(filepath.Join(d.Path, RunConfigFile), &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

// ReadMetrics loads the metrics document back from disk.
func (d Dir) ReadMetrics() (*Metrics, error) {
	var m Metrics
	if err := readJSON(filepath.Join(d.Path, MetricsFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
