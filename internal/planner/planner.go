package planner

import (
	"context"

	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
)

// Mode identifies how a plan's execution order was chosen.
type Mode string

const (
	// ModeExplicit means the graph supplied the order itself.
	ModeExplicit Mode = "explicit"
	// ModeToposort means the order was derived from connection dependencies.
	ModeToposort Mode = "toposort"
	// ModeCycleFallback means a dependency cycle forced declaration order.
	ModeCycleFallback Mode = "cycle-fallback"
)

// cycleFallbackNote is surfaced on plans whose ordering fell back to
// declaration order because of a feedback loop.
const cycleFallbackNote = "cycle detected; provide execution_order for deterministic feedback scheduling"

// Scheduling records the ordering decision a plan was built with.
type Scheduling struct {
	Mode Mode   `json:"mode"`
	Note string `json:"note,omitempty"`
}

// Wire is one entry of the channel wiring table: messages on the source
// channel are copied to the destination channel on every routing pass.
type Wire struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Plan is the materialized schedule for one run. ExecutionOrder covers every
// declared node exactly once.
type Plan struct {
	ExecutionOrder []string   `json:"execution_order"`
	Connections    []Wire     `json:"connections"`
	Scheduling     Scheduling `json:"scheduling"`
}

// Build validates the graph against the resolved blocks and catalog
// definitions, then computes the execution order and wiring table. It is
// all-or-nothing: a validation failure yields no plan at all.
func Build(ctx context.Context, graph *config.Graph, resolved []*catalog.ResolvedBlock, defs map[string]*config.BlockDefinition) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	byID := catalog.ByID(resolved)
	if len(byID) != len(resolved) {
		// Find the offender for a precise error.
		seen := make(map[string]bool, len(resolved))
		for _, rb := range resolved {
			if seen[rb.ID] {
				return nil, &DuplicateNodeError{NodeID: rb.ID}
			}
			seen[rb.ID] = true
		}
	}

	if err := validateConnections(graph, resolved, byID, defs); err != nil {
		return nil, err
	}

	order, scheduling, err := resolveOrder(ctx, graph)
	if err != nil {
		return nil, err
	}

	// Every connection endpoint is already "blockId.portName", which is
	// exactly the channel naming convention, so the wiring table is the
	// connection list rewritten entry by entry.
	wires := make([]Wire, 0, len(graph.Connections))
	for _, c := range graph.Connections {
		wires = append(wires, Wire{From: c.From, To: c.To})
	}

	logger.Debug("Plan built.",
		"mode", scheduling.Mode,
		"order", order,
		"wires", len(wires),
	)
	return &Plan{
		ExecutionOrder: order,
		Connections:    wires,
		Scheduling:     scheduling,
	}, nil
}

// resolveOrder picks the execution order: explicit, topological, or the
// cycle fallback to declaration order.
func resolveOrder(ctx context.Context, graph *config.Graph) ([]string, Scheduling, error) {
	logger := ctxlog.FromContext(ctx)

	declared := make([]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		declared = append(declared, n.ID)
	}

	if len(graph.ExecutionOrder) > 0 {
		if err := validateExplicitOrder(graph.ExecutionOrder, declared); err != nil {
			return nil, Scheduling{}, err
		}
		return graph.ExecutionOrder, Scheduling{Mode: ModeExplicit}, nil
	}

	deps := dependencyEdges(graph)
	if order, ok := toposort(declared, deps); ok {
		return order, Scheduling{Mode: ModeToposort}, nil
	}

	logger.Warn("Dependency cycle detected, falling back to declaration order.", "order", declared)
	return declared, Scheduling{Mode: ModeCycleFallback, Note: cycleFallbackNote}, nil
}

// validateExplicitOrder checks that an explicit order is a permutation of
// the declared node ids.
func validateExplicitOrder(order, declared []string) error {
	declaredSet := make(map[string]bool, len(declared))
	for _, id := range declared {
		declaredSet[id] = true
	}

	seen := make(map[string]bool, len(order))
	var duplicates []string
	for _, id := range order {
		if !declaredSet[id] {
			return &UnknownOrderReferenceError{NodeID: id}
		}
		if seen[id] {
			duplicates = append(duplicates, id)
		}
		seen[id] = true
	}

	var missing []string
	for _, id := range declared {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 || len(duplicates) > 0 {
		return &OrderPermutationError{Missing: missing, Duplicates: duplicates}
	}
	return nil
}

// dependencyEdges interprets every connection "src.port -> dst.port" as
// "dst depends on src". Endpoints were validated before this runs.
func dependencyEdges(graph *config.Graph) [][2]string {
	edges := make([][2]string, 0, len(graph.Connections))
	for _, c := range graph.Connections {
		src, err := parseEndpoint(c.From)
		if err != nil {
			continue
		}
		dst, err := parseEndpoint(c.To)
		if err != nil {
			continue
		}
		edges = append(edges, [2]string{src.Node, dst.Node})
	}
	return edges
}

// toposort runs a Kahn-style topological sort over the dependency edges,
// always placing the earliest-declared ready node next so the result is
// deterministic for a given document. Self-loops are ignored for ordering.
// Returns ok=false when a cycle prevents placing every node.
func toposort(ids []string, edges [][2]string) ([]string, bool) {
	indeg := make(map[string]int, len(ids))
	adj := make(map[string][]string, len(ids))
	for _, id := range ids {
		indeg[id] = 0
	}
	for _, e := range edges {
		src, dst := e[0], e[1]
		if src == dst {
			continue
		}
		if _, ok := indeg[src]; !ok {
			continue
		}
		if _, ok := indeg[dst]; !ok {
			continue
		}
		adj[src] = append(adj[src], dst)
		indeg[dst]++
	}

	out := make([]string, 0, len(ids))
	placed := make(map[string]bool, len(ids))

	for len(out) < len(ids) {
		next := ""
		for _, id := range ids {
			if !placed[id] && indeg[id] == 0 {
				next = id
				break
			}
		}
		if next == "" {
			return nil, false
		}
		placed[next] = true
		out = append(out, next)
		for _, dst := range adj[next] {
			indeg[dst]--
		}
	}
	return out, true
}
