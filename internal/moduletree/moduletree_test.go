package moduletree

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"depwiki/internal/graph"
)

func sampleTree() Tree {
	tree := NewTree()
	core := &Module{Path: "src/core", Components: []string{"src.core.Engine"}, Children: NewTree()}
	core.Children.Add("codec", &Module{Path: "src/core/codec", Components: []string{"src.core.codec.Decoder"}})
	tree.Add("core", core)
	tree.Add("api", &Module{Path: "src/api", Components: []string{"src.api.Handler"}})
	return tree
}

func TestProcessingOrderChildrenFirst(t *testing.T) {
	order := sampleTree().ProcessingOrder()
	want := []string{"api", "core/codec", "core"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("ProcessingOrder = %v, want %v", order, want)
	}
}

func TestLookup(t *testing.T) {
	tree := sampleTree()
	if m := tree.Lookup("core/codec"); m == nil || m.Path != "src/core/codec" {
		t.Errorf("Lookup(core/codec) = %+v", m)
	}
	if tree.Lookup("core/missing") != nil {
		t.Errorf("Lookup of unknown module should be nil")
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "moduletree-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	tree := sampleTree()
	if err := tree.SaveSnapshots(dir); err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}

	// Mutate and save again: the first snapshot must stay frozen.
	tree.Add("extra", &Module{Path: "src/extra"})
	if err := tree.SaveSnapshots(dir); err != nil {
		t.Fatalf("SaveSnapshots again: %v", err)
	}

	first, err := Load(filepath.Join(dir, FirstSnapshotFile))
	if err != nil {
		t.Fatalf("Load first: %v", err)
	}
	if _, ok := first["extra"]; ok {
		t.Errorf("first snapshot was overwritten")
	}

	live, err := Load(filepath.Join(dir, LiveSnapshotFile))
	if err != nil {
		t.Fatalf("Load live: %v", err)
	}
	if _, ok := live["extra"]; !ok {
		t.Errorf("live snapshot missing new module")
	}
	if live.ComponentCount() != 3 {
		t.Errorf("ComponentCount = %d, want 3", live.ComponentCount())
	}
}

func TestPathClusterer(t *testing.T) {
	registry := graph.NewRegistry()
	registry.Add(&graph.Node{ID: "api.Handler", RelativePath: "api/handler.py", ComponentType: "class"})
	registry.Add(&graph.Node{ID: "api.Router", RelativePath: "api/router.py", ComponentType: "class"})
	registry.Add(&graph.Node{ID: "util", RelativePath: "util.py", ComponentType: "function"})

	tree, err := PathClusterer{}.Cluster(context.Background(),
		[]string{"api.Router", "api.Handler", "util", "ghost.Gone"}, registry)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	api := tree["api"]
	if api == nil || api.Path != "api" {
		t.Fatalf("api module = %+v", api)
	}
	if !reflect.DeepEqual(api.Components, []string{"api.Handler", "api.Router"}) {
		t.Errorf("api components = %v", api.Components)
	}
	if tree["util"] == nil {
		t.Errorf("dotless ID should form its own module")
	}
	if _, ok := tree["ghost"]; ok {
		t.Errorf("IDs missing from the registry must be dropped")
	}
}

func TestOverridesApply(t *testing.T) {
	dir, err := os.MkdirTemp("", "moduletree-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	declPath := filepath.Join(dir, OverridesFile)
	decl := `
[modules.platform]
path = "src/platform"
components = ["src.core.Engine"]
`
	if err := os.WriteFile(declPath, []byte(decl), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	overrides, err := LoadOverrides(declPath)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	tree := sampleTree()
	overrides.Apply(tree)

	platform := tree["platform"]
	if platform == nil || platform.Path != "src/platform" {
		t.Fatalf("platform module = %+v", platform)
	}
	if !reflect.DeepEqual(platform.Components, []string{"src.core.Engine"}) {
		t.Errorf("platform components = %v", platform.Components)
	}
	// The component moved out of its clustered home.
	if len(tree["core"].Components) != 0 {
		t.Errorf("core still owns claimed component: %v", tree["core"].Components)
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(os.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(overrides.Modules) != 0 {
		t.Errorf("expected empty overrides")
	}
}
