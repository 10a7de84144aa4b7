// Package catalog resolves declared graph nodes against the block-type
// catalog: the type's declared defaults (ports, parameters, construction
// factory) merged with per-instance overrides produce one ResolvedBlock per
// node. Resolution is a pure transformation; it touches no shared state.
package catalog

import (
	"fmt"

	"github.com/vk/tickrig/internal/config"
)

// ResolvedBlock is a node's fully merged specification. Created once per
// planning pass and never mutated afterwards.
type ResolvedBlock struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Category string         `json:"category,omitempty"`
	Factory  string         `json:"factory"`
	Ports    Ports          `json:"ports"`
	Params   map[string]any `json:"params"`
}

// Ports lists a block's port names in declaration order.
type Ports struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Channel returns the flat-namespace channel name for one port of one block.
func Channel(blockID, port string) string {
	return blockID + "." + port
}

// InputChannels maps each input port name to its channel name.
func (rb *ResolvedBlock) InputChannels() map[string]string {
	return portChannels(rb.ID, rb.Ports.Inputs)
}

// OutputChannels maps each output port name to its channel name.
func (rb *ResolvedBlock) OutputChannels() map[string]string {
	return portChannels(rb.ID, rb.Ports.Outputs)
}

func portChannels(blockID string, ports []string) map[string]string {
	channels := make(map[string]string, len(ports))
	for _, p := range ports {
		channels[p] = Channel(blockID, p)
	}
	return channels
}

// TypeNotFoundError reports a node whose declared type has no catalog entry.
type TypeNotFoundError struct {
	NodeID string
	Type   string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("block %q: type %q not found in catalog", e.NodeID, e.Type)
}

// MissingFactoryError reports a catalog entry that declares no construction
// factory, making the type impossible to instantiate.
type MissingFactoryError struct {
	Type string
}

func (e *MissingFactoryError) Error() string {
	return fmt.Sprintf("blocktype %q declares no runtime factory", e.Type)
}

// Resolve merges one node's declared defaults with its instance overrides.
// The merge is shallow: an override replaces the whole value for its key and
// never touches keys it does not name.
func Resolve(node *config.NodeDecl, defs map[string]*config.BlockDefinition) (*ResolvedBlock, error) {
	def, ok := defs[node.Type]
	if !ok {
		return nil, &TypeNotFoundError{NodeID: node.ID, Type: node.Type}
	}
	if def.Factory == "" {
		return nil, &MissingFactoryError{Type: node.Type}
	}

	params := make(map[string]any, len(def.Params)+len(node.Params))
	for _, p := range def.Params {
		params[p.Name] = p.Default
	}
	for name, v := range node.Params {
		params[name] = v
	}

	rb := &ResolvedBlock{
		ID:       node.ID,
		Type:     node.Type,
		Category: def.Category,
		Factory:  def.Factory,
		Params:   params,
	}
	for _, in := range def.Inputs {
		rb.Ports.Inputs = append(rb.Ports.Inputs, in.Name)
	}
	for _, out := range def.Outputs {
		rb.Ports.Outputs = append(rb.Ports.Outputs, out.Name)
	}
	return rb, nil
}

// ResolveAll resolves every node of a graph in declaration order.
func ResolveAll(graph *config.Graph, defs map[string]*config.BlockDefinition) ([]*ResolvedBlock, error) {
	resolved := make([]*ResolvedBlock, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		rb, err := Resolve(node, defs)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rb)
	}
	return resolved, nil
}

// ByID indexes a resolved block list by block id.
func ByID(blocks []*ResolvedBlock) map[string]*ResolvedBlock {
	byID := make(map[string]*ResolvedBlock, len(blocks))
	for _, rb := range blocks {
		byID[rb.ID] = rb
	}
	return byID
}
