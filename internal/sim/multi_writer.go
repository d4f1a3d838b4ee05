package sim

import (
	"errors"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// MultiWriter fans snapshots and messages out to multiple writers. Every
// writer is attempted; the errors are joined.
type MultiWriter struct {
	snapWriters []SnapshotWriter
	msgWriters  []MessageWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(sws []SnapshotWriter, mws []MessageWriter) *MultiWriter {
	return &MultiWriter{snapWriters: sws, msgWriters: mws}
}

// WriteSnapshot sends a snapshot to all snapshot writers.
func (mw *MultiWriter) WriteSnapshot(s telemetry.Snapshot) error {
	var errs []error
	for _, w := range mw.snapWriters {
		if err := w.WriteSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteMessage sends a message to all message writers.
func (mw *MultiWriter) WriteMessage(m agents.Message) error {
	var errs []error
	for _, w := range mw.msgWriters {
		if err := w.WriteMessage(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteLogs forwards a log batch to snapshot writers that accept one.
func (mw *MultiWriter) WriteLogs(logs []telemetry.DataLogEntry) error {
	var errs []error
	for _, w := range mw.snapWriters {
		if lw, ok := w.(logBatchWriter); ok {
			if err := lw.WriteLogs(logs); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
