package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"netenergy-sim/internal/telemetry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "snapshot", "--nodes", "5", "--seed", "42")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var body struct {
		Nodes   []telemetry.NodeReading `json:"nodes"`
		Summary telemetry.FleetSummary  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(body.Nodes) != 5 || body.Summary.NodeCount != 5 {
		t.Errorf("nodes = %d, summary count = %d", len(body.Nodes), body.Summary.NodeCount)
	}
}

func TestSnapshotCommandSeedIsDeterministic(t *testing.T) {
	t.Chdir(t.TempDir())
	a, err := run(t, "snapshot", "--seed", "7")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, _ := run(t, "snapshot", "--seed", "7")
	var sa, sb struct {
		Nodes []telemetry.NodeReading `json:"nodes"`
	}
	_ = json.Unmarshal([]byte(a), &sa)
	_ = json.Unmarshal([]byte(b), &sb)
	for i := range sa.Nodes {
		if sa.Nodes[i].EnergyW != sb.Nodes[i].EnergyW || sa.Nodes[i].State != sb.Nodes[i].State {
			t.Fatalf("node %d differs between seeded runs", i)
		}
	}
}

func TestLogsCommandEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETENERGY_LOG_BATCH", "3")
	out, err := run(t, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	var body struct {
		Logs []telemetry.DataLogEntry `json:"logs"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Logs) != 3 {
		t.Errorf("logs = %d, want 3", len(body.Logs))
	}
}

func TestInvalidOverrideFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := run(t, "snapshot", "--nodes=-1"); err == nil {
		t.Fatal("expected validation error for negative node count")
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := run(t, "snapshot", "--config", "nope.yaml", "--schema", ""); err == nil {
		t.Fatal("expected error for explicitly named missing config")
	}
}

func TestConfigFileIsRead(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("population:\n  node_count: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "snapshot", "--config", path, "--schema", "")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var body struct {
		Nodes []telemetry.NodeReading `json:"nodes"`
	}
	_ = json.Unmarshal([]byte(out), &body)
	if len(body.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(body.Nodes))
	}
}

func TestReplayRequiresInput(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := run(t, "replay"); err == nil {
		t.Fatal("expected missing --input error")
	}
}

func TestDashboardCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "greptime-uid")
	out, err := run(t, "dashboard", "--out", filepath.Join(dir, "build"))
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "build", "grafana-netenergy.json"))
	if err != nil {
		t.Fatalf("read: %v (output %q)", err, out)
	}
	if !bytes.Contains(b, []byte("greptime-uid")) || !bytes.Contains(b, []byte(`"refresh": "30s"`)) {
		t.Errorf("unexpected dashboard:\n%s", b)
	}
}
