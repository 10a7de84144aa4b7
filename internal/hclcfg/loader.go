package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the HCL loading process. It is agnostic to the origin of
// the paths and accepts any valid top-level block from any file, so graph
// documents and catalog manifests can live together or apart.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("discovering HCL files under %s: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var graph *config.Graph

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, bt := range root.BlockTypes {
			def, err := translateBlockType(bt)
			if err != nil {
				return nil, fmt.Errorf("in manifest %s: %w", file, err)
			}
			model.Definitions[def.Type] = def
		}

		if !hasGraphContent(&root) {
			continue
		}
		if graph == nil {
			graph = &config.Graph{}
		}
		if err := mergeGraphContent(graph, &root); err != nil {
			return nil, fmt.Errorf("in graph document %s: %w", file, err)
		}
	}

	model.Graph = graph
	logger.Debug("HCL loading complete.",
		"blocktypes", len(model.Definitions),
		"graph_present", graph != nil,
	)
	return model, nil
}

func hasGraphContent(root *fileRoot) bool {
	return root.Version != "" || len(root.Blocks) > 0 || len(root.Connections) > 0 ||
		len(root.ExecutionOrder) > 0 || root.Run != nil
}

// mergeGraphContent folds one file's graph declarations into the accumulated
// graph. Blocks and connections are cumulative; version, execution order and
// run configuration take the last non-empty value.
func mergeGraphContent(graph *config.Graph, root *fileRoot) error {
	if root.Version != "" {
		graph.Version = root.Version
	}
	if len(root.ExecutionOrder) > 0 {
		graph.ExecutionOrder = root.ExecutionOrder
	}

	for _, b := range root.Blocks {
		params, err := extractBodyParams(b.Params)
		if err != nil {
			return fmt.Errorf("in block %q: %w", b.ID, err)
		}
		graph.Nodes = append(graph.Nodes, &config.NodeDecl{
			ID:     b.ID,
			Type:   b.Type,
			Params: params,
		})
	}

	for _, c := range root.Connections {
		graph.Connections = append(graph.Connections, &config.Connection{
			From: c.From,
			To:   c.To,
		})
	}

	if root.Run != nil {
		overrides, err := extractBodyParams(root.Run.Overrides)
		if err != nil {
			return fmt.Errorf("in run overrides: %w", err)
		}
		graph.Run = config.RunConfig{
			DurationSec: root.Run.DurationSec,
			Hz:          root.Run.Hz,
			Viewer:      root.Run.Viewer,
			Overrides:   overrides,
		}
	}
	return nil
}

// translateBlockType converts the HCL manifest schema into the agnostic model.
func translateBlockType(bt *blocktypeDecl) (*config.BlockDefinition, error) {
	def := &config.BlockDefinition{
		Type:        bt.Type,
		Description: bt.Description,
		Category:    bt.Category,
	}
	if bt.Runtime != nil {
		def.Factory = bt.Runtime.Factory
	}
	for _, in := range bt.Inputs {
		def.Inputs = append(def.Inputs, &config.PortDefinition{
			Name:     in.Name,
			Type:     in.Type,
			Required: in.Required,
		})
	}
	for _, out := range bt.Outputs {
		def.Outputs = append(def.Outputs, &config.PortDefinition{
			Name: out.Name,
			Type: out.Type,
		})
	}
	for _, p := range bt.Params {
		var defaultVal any
		if p.Default != nil {
			val, err := evalToNative(p.Default)
			if err != nil {
				return nil, fmt.Errorf("blocktype %q param %q: %w", bt.Type, p.Name, err)
			}
			defaultVal = val
		}
		def.Params = append(def.Params, &config.ParamDefinition{
			Name:    p.Name,
			Default: defaultVal,
		})
	}
	return def, nil
}

var _ config.Loader = (*Loader)(nil)
