package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelative(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")
	got := Relative(filepath.Join(root, "pkg", "file.py"), root)
	if got != "pkg/file.py" {
		t.Errorf("Relative() = %q, want %q", got, "pkg/file.py")
	}
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"pkg/sub/file.py", "pkg.sub.file"},
		{"file.js", "file"},
		{"a/b/c.spec.ts", "a.b.c.spec"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := ModulePath(tt.rel); got != tt.want {
			t.Errorf("ModulePath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestWithinRoot(t *testing.T) {
	root, err := os.MkdirTemp("", "paths-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	inside := filepath.Join(root, "sub")
	if err := os.MkdirAll(inside, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if !WithinRoot(inside, root) {
		t.Errorf("WithinRoot(%q, %q) = false, want true", inside, root)
	}
	if !WithinRoot(root, root) {
		t.Errorf("WithinRoot(root, root) = false, want true")
	}

	outside, err := os.MkdirTemp("", "paths-outside-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer func() { _ = os.RemoveAll(outside) }()

	if WithinRoot(outside, root) {
		t.Errorf("WithinRoot(outside, root) = true, want false")
	}

	// A symlink pointing out of the root must be rejected.
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if WithinRoot(link, root) {
		t.Errorf("WithinRoot(symlink escape) = true, want false")
	}
}
