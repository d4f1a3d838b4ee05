package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, Options{Format: "json", Level: "debug"})
	l.Debug("snapshot generated", "nodes", 12)
	out := buf.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"nodes":12`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewTextHandlerFiltersLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, Options{Level: "warn"})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := New(&bytes.Buffer{}, Options{})
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("expected stored logger")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}
