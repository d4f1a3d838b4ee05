package agents

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseScript(t *testing.T) {
	src := `
name: demo
messages:
  - from: ingest
    to: decision
    content: "metrics in"
  - from: decision
    to: action
    content: "throttle NODE-003"
`
	script, err := ParseScript([]byte(src))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(script) != 2 || script[1].To != AgentAction || script[1].Content != "throttle NODE-003" {
		t.Errorf("unexpected script: %+v", script)
	}
}

func TestParseScriptEmpty(t *testing.T) {
	if _, err := ParseScript([]byte("name: empty\nmessages: []\n")); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("expected ErrEmptyScript, got %v", err)
	}
}

func TestLoadScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	src := "messages:\n  - {from: action, to: ingest, content: done}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	script, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if script[0].From != AgentAction {
		t.Errorf("unexpected script: %+v", script)
	}
	if _, err := LoadScript(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	if h.Cap() != 3 || h.Len() != 0 || len(h.Recent()) != 0 {
		t.Fatalf("unexpected empty ring state")
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Push(Message{ID: id})
	}
	got := ""
	for _, m := range h.Recent() {
		got += m.ID
	}
	if got != "dcb" {
		t.Errorf("recent = %s, want dcb", got)
	}
	if NewHistory(0).Cap() != DefaultHistoryCapacity {
		t.Error("expected default capacity for zero")
	}
}
