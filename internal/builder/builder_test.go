package builder

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"depwiki/internal/graph"
	"depwiki/internal/logging"
)

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func sampleRepo(t *testing.T) string {
	t.Helper()
	root, err := os.MkdirTemp("", "builder-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(root) })

	writeRepoFile(t, root, "README.md", "# Sample\n")
	writeRepoFile(t, root, "core.py",
		"class Engine:\n    def start(self):\n        pass\n")
	writeRepoFile(t, root, "app.py",
		"class App:\n    def run(self):\n        engine = Engine()\n        engine.start()\n")
	return root
}

func TestBuildLinksDependencies(t *testing.T) {
	root := sampleRepo(t)

	b := New(root, Options{Workers: 2}, logging.NewDiscardLogger())
	out, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, id := range []string{"core.Engine", "core.Engine.start", "app.App", "app.App.run"} {
		if out.Components.Get(id) == nil {
			t.Errorf("component %q missing, have %v", id, out.Components.IDs())
		}
	}

	run := out.Components.Get("app.App.run")
	if run == nil {
		t.Fatalf("app.App.run missing")
	}
	if !run.DependsOn.Contains("core.Engine") {
		t.Errorf("instantiation dependency missing: %v", run.DependsOn.Values())
	}
	if !run.DependsOn.Contains("core.Engine.start") {
		t.Errorf("method call dependency missing: %v", run.DependsOn.Values())
	}

	wantModules := []string{"app", "app.App", "core", "core.Engine"}
	if !reflect.DeepEqual(out.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", out.Modules, wantModules)
	}

	if out.Summary.FilesAnalyzed != 2 {
		t.Errorf("FilesAnalyzed = %d, want 2", out.Summary.FilesAnalyzed)
	}
	if out.Summary.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1 for the readme", out.Summary.FilesSkipped)
	}
	if len(out.Files) != 2 {
		t.Errorf("Files = %d entries, want 2", len(out.Files))
	}
	if filepath.Base(out.ReadmePath) != "README.md" {
		t.Errorf("ReadmePath = %q", out.ReadmePath)
	}
}

func TestBuildRespectsFileCap(t *testing.T) {
	root := sampleRepo(t)

	b := New(root, Options{MaxFiles: 1, Workers: 1}, logging.NewDiscardLogger())
	out, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out.Summary.FilesAnalyzed != 1 {
		t.Errorf("FilesAnalyzed = %d, want 1", out.Summary.FilesAnalyzed)
	}
	// One file over the cap plus the unsupported readme
	if out.Summary.FilesSkipped != 2 {
		t.Errorf("FilesSkipped = %d, want 2", out.Summary.FilesSkipped)
	}
}

func TestBuildMissingRoot(t *testing.T) {
	b := New(filepath.Join(os.TempDir(), "depwiki-does-not-exist"), Options{}, logging.NewDiscardLogger())
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatalf("expected error for missing repository root")
	}
}

func TestSaveLoadGraphRoundtrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "graph-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	registry := graph.NewRegistry()
	engine := &graph.Node{
		ID:           "core.Engine",
		Name:         "Engine",
		NodeType:     "class",
		RelativePath: "core.py",
	}
	registry.Add(engine)
	app := &graph.Node{
		ID:           "app.App",
		Name:         "App",
		NodeType:     "class",
		RelativePath: "app.py",
	}
	app.AddDependency("core.Engine")
	registry.Add(app)

	path := filepath.Join(dir, "out", "dependency_graph.json")
	if err := SaveGraph(registry, path, true); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("graph document not written: %v", err)
	}
	if _, err := os.Stat(path + ".zst"); err != nil {
		t.Errorf("compressed snapshot not written: %v", err)
	}

	loaded, err := LoadGraph(path)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if got := loaded.IDs(); !reflect.DeepEqual(got, []string{"app.App", "core.Engine"}) {
		t.Fatalf("IDs = %v", got)
	}
	if !loaded.Get("app.App").DependsOn.Contains("core.Engine") {
		t.Errorf("depends_on lost in roundtrip")
	}
}
