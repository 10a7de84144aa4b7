package planner

import (
	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
)

// validateConnections checks every connection against the declared blocks
// and their catalog definitions, then checks that every required input port
// across all blocks is fed by at least one connection. Blocks are visited in
// declaration order so the first error is stable across planning passes.
func validateConnections(graph *config.Graph, resolved []*catalog.ResolvedBlock, byID map[string]*catalog.ResolvedBlock, defs map[string]*config.BlockDefinition) error {
	connected := make(map[endpoint]bool)

	for _, c := range graph.Connections {
		src, err := parseEndpoint(c.From)
		if err != nil {
			return err
		}
		dst, err := parseEndpoint(c.To)
		if err != nil {
			return err
		}

		srcBlock, ok := byID[src.Node]
		if !ok {
			return &UnknownEndpointError{Ref: c.From, NodeID: src.Node}
		}
		dstBlock, ok := byID[dst.Node]
		if !ok {
			return &UnknownEndpointError{Ref: c.To, NodeID: dst.Node}
		}

		srcPort := defs[srcBlock.Type].Output(src.Port)
		if srcPort == nil {
			return &UndeclaredPortError{NodeID: src.Node, Port: src.Port, Direction: "output"}
		}
		dstPort := defs[dstBlock.Type].Input(dst.Port)
		if dstPort == nil {
			return &UndeclaredPortError{NodeID: dst.Node, Port: dst.Port, Direction: "input"}
		}

		// Type tags are checked only when both ends carry one.
		if srcPort.Type != "" && dstPort.Type != "" && srcPort.Type != dstPort.Type {
			return &PortTypeMismatchError{
				From:     c.From,
				To:       c.To,
				FromType: srcPort.Type,
				ToType:   dstPort.Type,
			}
		}

		connected[dst] = true
	}

	for _, rb := range resolved {
		def := defs[rb.Type]
		for _, in := range def.Inputs {
			if !in.Required {
				continue
			}
			if !connected[endpoint{Node: rb.ID, Port: in.Name}] {
				return &UnconnectedRequiredInputError{NodeID: rb.ID, Port: in.Name}
			}
		}
	}
	return nil
}
