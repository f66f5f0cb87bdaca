package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"depwiki/internal/callgraph"
	"depwiki/internal/logging"
	"depwiki/internal/scanner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "store-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	s, err := Open(dir, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run, err := s.BeginRun("/repo")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" || run.Status != RunRunning {
		t.Fatalf("unexpected run: %+v", run)
	}

	summary := callgraph.Summary{
		TotalFunctions: 10,
		TotalCalls:     25,
		FilesAnalyzed:  4,
		FilesFailed:    1,
		FilesSkipped:   3,
		ResolvedCalls:  20,
	}
	if err := s.CompleteRun(run, summary); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatalf("run not found after completion")
	}
	if got.Status != RunCompleted || got.TotalFunctions != 10 || got.FilesFailed != 1 || got.FilesSkipped != 3 {
		t.Errorf("stored run = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Errorf("CompletedAt not set")
	}
}

func TestFailRun(t *testing.T) {
	s := openTestStore(t)

	run, err := s.BeginRun("/repo")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.FailRun(run, "root unreadable"); err != nil {
		t.Fatalf("FailRun: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunFailed || got.Error != "root unreadable" {
		t.Errorf("stored run = %+v", got)
	}
}

func TestGetRunMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown run, got %+v", got)
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.BeginRun("/repo"); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}
	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("ListRuns returned %d runs, want 2", len(runs))
	}
}

func TestCleanupOldRuns(t *testing.T) {
	s := openTestStore(t)

	run, err := s.BeginRun("/repo")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	old := time.Now().UTC().Add(-48 * time.Hour)
	run.Status = RunCompleted
	run.CompletedAt = &old
	if err := s.updateRun(run); err != nil {
		t.Fatalf("updateRun: %v", err)
	}

	removed, err := s.CleanupOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldRuns: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestFingerprints(t *testing.T) {
	s := openTestStore(t)

	fpA := Fingerprint([]byte("def a(): pass\n"))
	fpB := Fingerprint([]byte("def b(): pass\n"))
	if fpA == fpB {
		t.Fatalf("distinct content produced equal fingerprints")
	}
	if fpA != Fingerprint([]byte("def a(): pass\n")) {
		t.Fatalf("fingerprint not deterministic")
	}

	if got, err := s.GetFingerprint("a.py"); err != nil || got != "" {
		t.Fatalf("GetFingerprint on empty store = %q, %v", got, err)
	}

	if err := s.SaveFingerprint("a.py", fpA); err != nil {
		t.Fatalf("SaveFingerprint: %v", err)
	}
	if err := s.SaveFingerprint("a.py", fpB); err != nil {
		t.Fatalf("SaveFingerprint update: %v", err)
	}

	got, err := s.GetFingerprint("a.py")
	if err != nil {
		t.Fatalf("GetFingerprint: %v", err)
	}
	if got != fpB {
		t.Errorf("fingerprint = %q, want latest %q", got, fpB)
	}

	all, err := s.AllFingerprints()
	if err != nil {
		t.Fatalf("AllFingerprints: %v", err)
	}
	if len(all) != 1 || all["a.py"] != fpB {
		t.Errorf("AllFingerprints = %v", all)
	}

	if err := s.ClearFingerprints(); err != nil {
		t.Fatalf("ClearFingerprints: %v", err)
	}
	all, err = s.AllFingerprints()
	if err != nil {
		t.Fatalf("AllFingerprints: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("fingerprints not cleared: %v", all)
	}
}

func TestRecordFingerprints(t *testing.T) {
	s := openTestStore(t)

	dir, err := os.MkdirTemp("", "fp-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	write := func(name, content string) scanner.CodeFile {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		return scanner.CodeFile{Path: path, RelativePath: name, Name: name}
	}
	files := []scanner.CodeFile{
		write("a.py", "def a(): pass\n"),
		write("b.py", "def b(): pass\n"),
	}

	// First run: everything counts as changed.
	changed, err := s.RecordFingerprints(files)
	if err != nil {
		t.Fatalf("RecordFingerprints: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2 on first record", changed)
	}

	// Unchanged content records nothing new.
	changed, err = s.RecordFingerprints(files)
	if err != nil {
		t.Fatalf("RecordFingerprints: %v", err)
	}
	if changed != 0 {
		t.Errorf("changed = %d, want 0 for identical content", changed)
	}

	// Only the edited file shows up as changed.
	files[1] = write("b.py", "def b(): return 1\n")
	changed, err = s.RecordFingerprints(files)
	if err != nil {
		t.Fatalf("RecordFingerprints: %v", err)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1 after editing one file", changed)
	}

	// A vanished file is skipped, not an error.
	missing := append(files, scanner.CodeFile{
		Path:         filepath.Join(dir, "gone.py"),
		RelativePath: "gone.py",
		Name:         "gone.py",
	})
	if _, err := s.RecordFingerprints(missing); err != nil {
		t.Fatalf("RecordFingerprints with missing file: %v", err)
	}
}
