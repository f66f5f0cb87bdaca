package callgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"depwiki/internal/graph"
	"depwiki/internal/lang"
	"depwiki/internal/logging"
	"depwiki/internal/scanner"
)

func writeCodeFile(t *testing.T, root, rel, content string) scanner.CodeFile {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return scanner.CodeFile{
		Path:         path,
		RelativePath: rel,
		Name:         filepath.Base(rel),
		Language:     lang.FromPath(rel),
	}
}

func findRel(rels []graph.CallRelationship, caller, callee string) *graph.CallRelationship {
	for i := range rels {
		if rels[i].Caller == caller && rels[i].Callee == callee {
			return &rels[i]
		}
	}
	return nil
}

func TestAnalyzeCrossFileResolution(t *testing.T) {
	root, err := os.MkdirTemp("", "callgraph-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	files := []scanner.CodeFile{
		writeCodeFile(t, root, "a.py", "def alpha():\n    beta()\n    gamma()\n"),
		writeCodeFile(t, root, "b.py", "def gamma():\n    pass\n"),
	}

	result, err := New(Options{Workers: 2}, logging.NewDiscardLogger()).
		Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Functions["a.alpha"] == nil || result.Functions["b.gamma"] == nil {
		t.Fatalf("components missing: %v", result.IDs)
	}

	// gamma lives in another file; the bare-name lookup resolves it.
	cross := findRel(result.Relationships, "a.alpha", "b.gamma")
	if cross == nil || !cross.IsResolved {
		t.Errorf("cross-file call not resolved: %v", result.Relationships)
	}

	// beta is declared nowhere; the edge survives unresolved.
	missing := findRel(result.Relationships, "a.alpha", "a.beta")
	if missing == nil || missing.IsResolved {
		t.Errorf("unknown callee should stay unresolved: %v", result.Relationships)
	}

	if result.Summary.FilesAnalyzed != 2 || result.Summary.FilesFailed != 0 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.Summary.ResolvedCalls < 1 || result.Summary.UnresolvedCalls < 1 {
		t.Errorf("call counters wrong: %+v", result.Summary)
	}
	if len(result.Summary.LanguagesFound) != 1 || result.Summary.LanguagesFound[0] != "python" {
		t.Errorf("languages = %v", result.Summary.LanguagesFound)
	}
}

func TestAnalyzeBareNameCollisionLastWriterWins(t *testing.T) {
	root, err := os.MkdirTemp("", "callgraph-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	files := []scanner.CodeFile{
		writeCodeFile(t, root, "first.py", "def shared():\n    pass\n"),
		writeCodeFile(t, root, "second.py", "def shared():\n    pass\n"),
		writeCodeFile(t, root, "caller.py", "def entry():\n    shared()\n"),
	}

	result, err := New(Options{Workers: 1}, logging.NewDiscardLogger()).
		Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Both components exist under their qualified IDs.
	if result.Functions["first.shared"] == nil || result.Functions["second.shared"] == nil {
		t.Fatalf("qualified IDs missing: %v", result.IDs)
	}

	// The ambiguous bare name resolves to the later registration.
	rel := findRel(result.Relationships, "caller.entry", "second.shared")
	if rel == nil || !rel.IsResolved {
		t.Errorf("ambiguous callee should go to last writer: %v", result.Relationships)
	}
}

func TestAnalyzeFailedFileIsIsolated(t *testing.T) {
	root, err := os.MkdirTemp("", "callgraph-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	files := []scanner.CodeFile{
		writeCodeFile(t, root, "good.py", "def fine():\n    pass\n"),
		{
			Path:         filepath.Join(root, "missing.py"),
			RelativePath: "missing.py",
			Name:         "missing.py",
			Language:     lang.Python,
		},
	}

	result, err := New(Options{Workers: 2}, logging.NewDiscardLogger()).
		Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("a single bad file must not abort the pass: %v", err)
	}
	if result.Summary.FilesFailed != 1 || result.Summary.FilesAnalyzed != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.Functions["good.fine"] == nil {
		t.Errorf("surviving file lost: %v", result.IDs)
	}
}

func TestAnalyzeDeduplicatesEdges(t *testing.T) {
	root, err := os.MkdirTemp("", "callgraph-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	files := []scanner.CodeFile{
		writeCodeFile(t, root, "m.py",
			"def target():\n    pass\n\ndef caller():\n    target()\n    target()\n"),
	}

	result, err := New(Options{Workers: 1}, logging.NewDiscardLogger()).
		Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	count := 0
	var line int
	for _, rel := range result.Relationships {
		if rel.Caller == "m.caller" && rel.Callee == "m.target" {
			count++
			line = rel.CallLine
		}
	}
	if count != 1 {
		t.Errorf("duplicate edges survived: %v", result.Relationships)
	}
	if line != 5 {
		t.Errorf("first occurrence should win, line = %d", line)
	}
}

func TestTrimToMostConnected(t *testing.T) {
	result := &Result{Functions: map[string]*graph.Node{}}
	for _, id := range []string{"m.hub", "m.a", "m.b", "m.loner"} {
		result.Functions[id] = &graph.Node{ID: id}
		result.IDs = append(result.IDs, id)
	}
	result.Relationships = []graph.CallRelationship{
		{Caller: "m.a", Callee: "m.hub", IsResolved: true},
		{Caller: "m.b", Callee: "m.hub", IsResolved: true},
	}

	result.TrimToMostConnected(3)

	if len(result.Functions) != 3 {
		t.Fatalf("kept %d components, want 3", len(result.Functions))
	}
	if result.Functions["m.hub"] == nil {
		t.Errorf("highest-degree node dropped")
	}
	if result.Functions["m.loner"] != nil {
		t.Errorf("isolated node should be dropped first")
	}
}

func TestVisualization(t *testing.T) {
	result := &Result{
		Functions: map[string]*graph.Node{
			"m.a": {ID: "m.a", Name: "a", NodeType: "function", RelativePath: "m.py"},
			"m.b": {ID: "m.b", Name: "b", NodeType: "method", RelativePath: "m.py"},
		},
		IDs: []string{"m.a", "m.b"},
		Relationships: []graph.CallRelationship{
			{Caller: "m.a", Callee: "m.b", IsResolved: true},
			{Caller: "m.a", Callee: "ghost", IsResolved: false},
		},
	}

	viz := result.Visualization()
	if len(viz.Elements) != 3 {
		t.Fatalf("elements = %d, want 2 nodes + 1 resolved edge", len(viz.Elements))
	}
	if viz.Summary.TotalNodes != 2 || viz.Summary.TotalEdges != 1 || viz.Summary.UnresolvedCalls != 1 {
		t.Errorf("summary = %+v", viz.Summary)
	}
	if viz.Elements[1].Classes != "node-method lang-python" {
		t.Errorf("method classes = %q", viz.Elements[1].Classes)
	}
}
