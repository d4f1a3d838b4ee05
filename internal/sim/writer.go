package sim

import (
	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// SnapshotWriter receives every refreshed fleet snapshot.
type SnapshotWriter interface {
	WriteSnapshot(telemetry.Snapshot) error
}

// MessageWriter receives agent messages as the scheduler emits them.
type MessageWriter interface {
	WriteMessage(agents.Message) error
}

// Optional: writers may accept a whole log batch at once.
type logBatchWriter interface {
	WriteLogs([]telemetry.DataLogEntry) error
}

// Writer is implemented by sinks that take both snapshots and messages.
type Writer interface {
	SnapshotWriter
	MessageWriter
}
