package graph

import (
	"sort"
	"strings"

	"depwiki/internal/logging"
)

// errTokens mark identifiers that look like error strings leaked from an
// upstream stage rather than real component IDs.
var errTokens = []string{"error", "exception", "failed", "invalid"}

// Adjacency is a directed dependency graph over component IDs, built from
// each node's depends_on set. Edges point from a component to the
// components it depends on.
type Adjacency map[string][]string

// BuildAdjacency constructs the adjacency structure from the registry.
// Only edges whose target exists in the registry are kept; self-loops are
// dropped. Edge lists are sorted for deterministic traversal.
func BuildAdjacency(registry Registry) Adjacency {
	adj := make(Adjacency, len(registry))
	for id, node := range registry {
		var deps []string
		for dep := range node.DependsOn {
			if dep == id {
				continue
			}
			if _, ok := registry[dep]; ok {
				deps = append(deps, dep)
			}
		}
		sort.Strings(deps)
		adj[id] = deps
	}
	return adj
}

// LeafNodes returns the component IDs that are safe to treat as atomic
// documentation units: nodes with no remaining internal dependencies,
// restricted to structurally meaningful component types. Classes,
// interfaces, and structs are preferred; when the registry contains none
// of those (a purely procedural codebase), functions qualify instead.
//
// Identifiers that are absent from the registry, blank, or that resemble
// error tokens are dropped with a warning rather than propagated.
func LeafNodes(adj Adjacency, registry Registry, logger *logging.Logger) []string {
	validTypes := leafTypes(registry)

	candidates := make([]string, 0, len(adj))
	for id, deps := range adj {
		if len(deps) == 0 {
			candidates = append(candidates, id)
		}
	}
	sort.Strings(candidates)

	var leaves []string
	for _, id := range candidates {
		if strings.TrimSpace(id) == "" || looksLikeError(id) {
			logger.Warn("Skipping invalid leaf node identifier", map[string]interface{}{
				"id": id,
			})
			continue
		}
		node, ok := registry[id]
		if !ok {
			logger.Warn("Leaf node not found in registry, removing it", map[string]interface{}{
				"id": id,
			})
			continue
		}
		if validTypes.Contains(node.ComponentType) {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// leafTypes picks the component types eligible as leaves for the dominant
// paradigm in the registry.
func leafTypes(registry Registry) StringSet {
	valid := StringSet{"class": {}, "interface": {}, "struct": {}}
	available := registry.ComponentTypes()
	for t := range valid {
		if available.Contains(t) {
			return valid
		}
	}
	valid.Add("function")
	return valid
}

func looksLikeError(id string) bool {
	lower := strings.ToLower(id)
	for _, tok := range errTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// ProcessingOrder returns all registry IDs in dependency order:
// a component appears after everything it depends on. Cycles are broken
// deterministically by sorted ID; the order is stable across runs.
func ProcessingOrder(adj Adjacency, registry Registry) []string {
	order := make([]string, 0, len(registry))
	state := make(map[string]int, len(registry)) // 0 unvisited, 1 in progress, 2 done

	var visit func(id string)
	visit = func(id string) {
		switch state[id] {
		case 1, 2:
			return
		}
		state[id] = 1
		for _, dep := range adj[id] {
			visit(dep)
		}
		state[id] = 2
		order = append(order, id)
	}

	for _, id := range registry.IDs() {
		visit(id)
	}
	return order
}
