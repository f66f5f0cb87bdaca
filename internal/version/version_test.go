package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	defer func() {
		Version = origVersion
		Commit = origCommit
	}()

	Version = "1.2.3"
	Commit = "unknown"
	if got := Info(); got != "1.2.3" {
		t.Errorf("Info() = %q, want %q", got, "1.2.3")
	}

	Commit = "abcdef1234567890"
	if got := Info(); got != "1.2.3 (abcdef1)" {
		t.Errorf("Info() = %q, want %q", got, "1.2.3 (abcdef1)")
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, "depwiki version") {
		t.Errorf("Full() missing product name: %q", full)
	}
	if !strings.Contains(full, "Commit:") || !strings.Contains(full, "Built:") {
		t.Errorf("Full() missing build fields: %q", full)
	}
}
