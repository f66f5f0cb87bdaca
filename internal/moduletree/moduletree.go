// Package moduletree defines the hierarchical module tree produced by the
// clustering stage and consumed by documentation generators. The core
// constructs the first version of the tree and persists snapshots; the
// values a clusterer puts into path and grouping fields are treated as
// opaque strings beyond shape validation.
package moduletree

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"depwiki/internal/graph"
)

// Module is one entry in the tree: a named group with a path label, the
// component IDs assigned to it, and nested child modules.
type Module struct {
	Path       string   `json:"path"`
	Components []string `json:"components"`
	Children   Tree     `json:"children"`
}

// Tree maps module names to their entries. A leaf module has an empty
// Children map.
type Tree map[string]*Module

// NewTree returns an empty module tree.
func NewTree() Tree {
	return make(Tree)
}

// Add inserts or replaces a top-level module.
func (t Tree) Add(name string, module *Module) {
	if name == "" || module == nil {
		return
	}
	if module.Children == nil {
		module.Children = NewTree()
	}
	t[name] = module
}

// Names returns the module names in sorted order.
func (t Tree) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentCount returns the total number of component references in the
// tree, including nested modules.
func (t Tree) ComponentCount() int {
	total := 0
	for _, module := range t {
		total += len(module.Components)
		total += module.Children.ComponentCount()
	}
	return total
}

// ProcessingOrder returns module names depth-first with children before
// their parents, so nested modules are documented before the module that
// contains them. Child names are qualified with the parent name using "/".
func (t Tree) ProcessingOrder() []string {
	var order []string
	var visit func(prefix string, tree Tree)
	visit = func(prefix string, tree Tree) {
		for _, name := range tree.Names() {
			qualified := name
			if prefix != "" {
				qualified = prefix + "/" + name
			}
			visit(qualified, tree[name].Children)
			order = append(order, qualified)
		}
	}
	visit("", t)
	return order
}

// Lookup resolves a qualified module name as produced by ProcessingOrder.
func (t Tree) Lookup(qualified string) *Module {
	parts := strings.Split(qualified, "/")
	tree := t
	var module *Module
	for _, part := range parts {
		module = tree[part]
		if module == nil {
			return nil
		}
		tree = module.Children
	}
	return module
}

// Snapshot filenames under the .depwiki output directory. The first
// snapshot is written once and never touched again; the live copy is the
// working tree downstream agents mutate.
const (
	FirstSnapshotFile = "first_module_tree.json"
	LiveSnapshotFile  = "module_tree.json"
)

// Save writes the tree as indented JSON to the given path.
func (t Tree) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode module tree: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write module tree: %w", err)
	}
	return nil
}

// SaveSnapshots writes the live working copy and, if absent, the first
// snapshot into outputDir.
func (t Tree) SaveSnapshots(outputDir string) error {
	firstPath := filepath.Join(outputDir, FirstSnapshotFile)
	if _, err := os.Stat(firstPath); os.IsNotExist(err) {
		if err := t.Save(firstPath); err != nil {
			return err
		}
	}
	return t.Save(filepath.Join(outputDir, LiveSnapshotFile))
}

// Load reads a module tree snapshot from path.
func Load(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module tree: %w", err)
	}
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode module tree: %w", err)
	}
	return tree, nil
}

// Clusterer groups leaf components into a module tree. The primary
// implementation lives outside the core analysis pipeline; PathClusterer
// provides a deterministic fallback.
type Clusterer interface {
	Cluster(ctx context.Context, leafIDs []string, components graph.Registry) (Tree, error)
}

// PathClusterer groups components by the leading segment of their dotted
// ID, which corresponds to the top-level directory or file of the repo.
type PathClusterer struct{}

// Cluster implements Clusterer.
func (PathClusterer) Cluster(_ context.Context, leafIDs []string, components graph.Registry) (Tree, error) {
	tree := NewTree()
	sorted := make([]string, len(leafIDs))
	copy(sorted, leafIDs)
	sort.Strings(sorted)

	for _, id := range sorted {
		node := components.Get(id)
		if node == nil {
			continue
		}
		name := id
		path := node.RelativePath
		if i := strings.Index(id, "."); i > 0 {
			name = id[:i]
			path = strings.Split(node.RelativePath, "/")[0]
		}
		module := tree[name]
		if module == nil {
			module = &Module{Path: path, Children: NewTree()}
			tree[name] = module
		}
		module.Components = append(module.Components, id)
	}
	return tree, nil
}
