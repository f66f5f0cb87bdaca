package analyzers

import (
	"testing"

	"depwiki/internal/graph"
)

func findNode(nodes []*graph.Node, id string) *graph.Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func requireNode(t *testing.T, nodes []*graph.Node, id string) *graph.Node {
	t.Helper()
	n := findNode(nodes, id)
	if n == nil {
		ids := make([]string, 0, len(nodes))
		for _, node := range nodes {
			ids = append(ids, node.ID)
		}
		t.Fatalf("node %q not found, have %v", id, ids)
	}
	return n
}

func hasRel(rels []graph.CallRelationship, caller, callee string) bool {
	for _, r := range rels {
		if r.Caller == caller && r.Callee == callee {
			return true
		}
	}
	return false
}

func findRel(rels []graph.CallRelationship, caller, callee string) *graph.CallRelationship {
	for i := range rels {
		if rels[i].Caller == caller && rels[i].Callee == callee {
			return &rels[i]
		}
	}
	return nil
}

func src(relPath, content string) Source {
	return Source{
		AbsPath: "/repo/" + relPath,
		RelPath: relPath,
		Content: []byte(content),
	}
}
