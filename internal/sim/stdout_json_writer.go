package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// JSONStdoutWriter prints snapshots, messages and logs as JSON lines.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteSnapshot outputs a snapshot as one JSON line.
func (w *JSONStdoutWriter) WriteSnapshot(s telemetry.Snapshot) error {
	return w.emit(s)
}

// WriteMessage outputs an agent message as one JSON line.
func (w *JSONStdoutWriter) WriteMessage(m agents.Message) error {
	return w.emit(m)
}

// WriteLogs outputs each log entry as its own JSON line.
func (w *JSONStdoutWriter) WriteLogs(logs []telemetry.DataLogEntry) error {
	for _, l := range logs {
		if err := w.emit(l); err != nil {
			return err
		}
	}
	return nil
}
