// Package yamlcfg is the YAML implementation of config.Loader. It reads the
// catalog's manifest dialect, one block.yaml per block type, shaped as
//
//	block:
//	  name: cartesian_control
//	  category: control
//	  inputs:  [{name: state, type: robot_state, required: true}]
//	  outputs: [{name: command, type: cartesian_cmd}]
//	  params:  [{name: step, default: 0.005}]
//	  runtime: {factory: NewCartesianControl}
//
// Graph documents are not expressible in this dialect; models produced here
// carry definitions only.
package yamlcfg

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/fsutil"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

type manifestFile struct {
	Block *manifestBlock `yaml:"block"`
}

type manifestBlock struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Category    string           `yaml:"category"`
	Inputs      []*manifestPort  `yaml:"inputs"`
	Outputs     []*manifestPort  `yaml:"outputs"`
	Params      []*manifestParam `yaml:"params"`
	Runtime     *manifestRuntime `yaml:"runtime"`
}

type manifestPort struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type manifestParam struct {
	Name    string `yaml:"name"`
	Default any    `yaml:"default"`
}

type manifestRuntime struct {
	Factory string `yaml:"factory"`
}

// Load reads every .yaml file under the given paths and merges the block
// definitions they declare.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	model := config.NewModel()

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".yaml")
		if err != nil {
			return nil, fmt.Errorf("discovering YAML files under %s: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading manifest %s: %w", file, err)
		}

		var mf manifestFile
		if err := yaml.Unmarshal(raw, &mf); err != nil {
			return nil, fmt.Errorf("failed to decode YAML manifest %s: %w", file, err)
		}
		if mf.Block == nil {
			// Not a manifest file; other YAML files may share the tree.
			logger.Debug("Skipping YAML file without a block section.", "file", file)
			continue
		}
		if mf.Block.Name == "" {
			return nil, fmt.Errorf("manifest %s: block section is missing a name", file)
		}

		model.Definitions[mf.Block.Name] = translate(mf.Block)
	}

	logger.Debug("YAML loading complete.", "blocktypes", len(model.Definitions))
	return model, nil
}

func translate(b *manifestBlock) *config.BlockDefinition {
	def := &config.BlockDefinition{
		Type:        b.Name,
		Description: b.Description,
		Category:    b.Category,
	}
	if b.Runtime != nil {
		def.Factory = b.Runtime.Factory
	}
	for _, in := range b.Inputs {
		def.Inputs = append(def.Inputs, &config.PortDefinition{
			Name:     in.Name,
			Type:     in.Type,
			Required: in.Required,
		})
	}
	for _, out := range b.Outputs {
		def.Outputs = append(def.Outputs, &config.PortDefinition{
			Name: out.Name,
			Type: out.Type,
		})
	}
	for _, p := range b.Params {
		def.Params = append(def.Params, &config.ParamDefinition{
			Name:    p.Name,
			Default: normalizeYAMLValue(p.Default),
		})
	}
	return def
}

// normalizeYAMLValue lines YAML scalar decoding up with the HCL and JSON
// loaders: numbers become float64 and nested maps become map[string]any.
func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAMLValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAMLValue(item)
		}
		return out
	default:
		return v
	}
}

var _ config.Loader = (*Loader)(nil)
