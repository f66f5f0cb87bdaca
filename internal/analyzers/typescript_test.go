package analyzers

import (
	"context"
	"testing"

	"depwiki/internal/logging"
)

const tsSample = `const LIMIT = 10;

interface Repo {
  find(id: string): Entity;
}

class Entity {}

export class Service {
  constructor(repo: Repo) {}

  run(): Entity {
    return fetchOne();
  }
}

function fetchOne(): Entity {
  return new Entity();
}
`

func TestTypeScriptDeclarations(t *testing.T) {
	a := NewTypeScriptAnalyzer(logging.NewDiscardLogger())
	nodes, _, err := a.Analyze(context.Background(), src("svc/service.ts", tsSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	service := requireNode(t, nodes, "svc.service.Service")
	if service.ComponentType != "class" {
		t.Errorf("Service type = %q", service.ComponentType)
	}

	repo := requireNode(t, nodes, "svc.service.Repo")
	if repo.ComponentType != "interface" {
		t.Errorf("Repo type = %q", repo.ComponentType)
	}

	requireNode(t, nodes, "svc.service.Entity")
	requireNode(t, nodes, "svc.service.fetchOne")

	// Plain variables and constructor internals never become components.
	if findNode(nodes, "svc.service.LIMIT") != nil {
		t.Errorf("variable promoted to component")
	}
	if findNode(nodes, "svc.service.constructor") != nil {
		t.Errorf("constructor promoted to component")
	}
}

func TestTypeScriptRelationships(t *testing.T) {
	a := NewTypeScriptAnalyzer(logging.NewDiscardLogger())
	_, rels, err := a.Analyze(context.Background(), src("svc/service.ts", tsSample))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Constructor parameter types are dependency-injection edges.
	if !hasRel(rels, "svc.service.Service", "svc.service.Repo") {
		t.Errorf("missing DI edge Service->Repo: %v", rels)
	}
	// Return type annotations create type edges.
	if !hasRel(rels, "svc.service.Service", "svc.service.Entity") {
		t.Errorf("missing type edge Service->Entity: %v", rels)
	}
	if !hasRel(rels, "svc.service.Repo", "svc.service.Entity") {
		t.Errorf("missing type edge Repo->Entity: %v", rels)
	}
	// Calls and instantiations.
	if !hasRel(rels, "svc.service.Service", "svc.service.fetchOne") {
		t.Errorf("missing call edge Service->fetchOne: %v", rels)
	}
	if !hasRel(rels, "svc.service.fetchOne", "svc.service.Entity") {
		t.Errorf("missing new edge fetchOne->Entity: %v", rels)
	}

	// Builtin types never generate edges.
	for _, r := range rels {
		if r.Callee == "svc.service.string" {
			t.Errorf("builtin type leaked: %+v", r)
		}
	}
}
