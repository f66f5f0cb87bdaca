package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})

	logger.Info("scan complete", map[string]interface{}{"files": 12})

	var entry struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "info" || entry.Message != "scan complete" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["files"] != float64(12) {
		t.Errorf("fields[files] = %v, want 12", entry.Fields["files"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("dropped", nil)
	logger.Info("dropped", nil)
	logger.Warn("kept", nil)
	logger.Error("kept", nil)

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("got %d log lines, want 2: %q", lines, buf.String())
	}
}

func TestHumanFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: &buf})

	logger.Info("hello", map[string]interface{}{"b": 2, "a": 1})

	out := buf.String()
	if !strings.Contains(out, "[info] hello") {
		t.Errorf("missing level/message: %q", out)
	}
	// Fields print in sorted key order.
	if strings.Index(out, "a=1") > strings.Index(out, "b=2") {
		t.Errorf("fields not sorted: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DebugLevel {
		t.Errorf("ParseLevel(debug) wrong")
	}
	if ParseLevel("bogus") != InfoLevel {
		t.Errorf("ParseLevel(bogus) should default to info")
	}
}
