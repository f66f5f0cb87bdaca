// Package graph defines the component graph model shared by the scanner,
// the per-language analyzers, and the cross-file orchestrator: declaration
// nodes, call relationships, the component registry, and the leaf/order
// decomposition used to drive downstream documentation stages.
package graph

import (
	"encoding/json"
	"sort"
)

// Node represents one extracted declaration (function, method, class,
// interface, struct, table, procedure, ...) with its location, verbatim
// source span, and metadata. IDs are module-path qualified and unique
// across the repository.
type Node struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ComponentType string    `json:"component_type"`
	FilePath      string    `json:"file_path"`
	RelativePath  string    `json:"relative_path"`
	SourceCode    string    `json:"source_code"`
	StartLine     int       `json:"start_line"`
	EndLine       int       `json:"end_line"`
	HasDocstring  bool      `json:"has_docstring"`
	Docstring     string    `json:"docstring"`
	Parameters    []string  `json:"parameters"`
	NodeType      string    `json:"node_type"`
	BaseClasses   []string  `json:"base_classes,omitempty"`
	ClassName     string    `json:"class_name,omitempty"`
	DisplayName   string    `json:"display_name"`
	ComponentID   string    `json:"component_id"`
	DependsOn     StringSet `json:"depends_on"`
}

// AddDependency records a dependency edge on the node. Self-edges are
// ignored: a node never depends on itself.
func (n *Node) AddDependency(id string) {
	if id == "" || id == n.ID {
		return
	}
	if n.DependsOn == nil {
		n.DependsOn = make(StringSet)
	}
	n.DependsOn.Add(id)
}

// CallRelationship is a directed reference from a caller context to a
// callee. Before resolution Callee is a textual name; after resolution
// with IsResolved=true it is a key in the component registry.
type CallRelationship struct {
	Caller     string `json:"caller"`
	Callee     string `json:"callee"`
	CallLine   int    `json:"call_line"`
	IsResolved bool   `json:"is_resolved"`
}

// StringSet is a set of strings that serializes as a sorted JSON array.
type StringSet map[string]struct{}

// NewStringSet returns an empty set.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts a value into the set.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Contains reports whether v is in the set.
func (s StringSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the set members in sorted order.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON serializes the set as a sorted array for stable output.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON reads the set back from a JSON array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	set := make(StringSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	*s = set
	return nil
}

// Registry maps component IDs to their nodes. It is built once per
// analysis run by the orchestrator merge and is read-only afterwards.
type Registry map[string]*Node

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Add inserts or replaces a node, keyed by its ID.
func (r Registry) Add(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	r[n.ID] = n
}

// Get returns the node for an ID, or nil.
func (r Registry) Get(id string) *Node {
	return r[id]
}

// IDs returns all component IDs in sorted order.
func (r Registry) IDs() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ComponentTypes returns the set of distinct component types present.
func (r Registry) ComponentTypes() StringSet {
	types := make(StringSet)
	for _, n := range r {
		types.Add(n.ComponentType)
	}
	return types
}
