package sim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"netenergy-sim/internal/telemetry"
)

// ReplayLog replays snapshots from a JSONL stream r to writer, spacing them by
// their generation times divided by speed. If speed <= 0, no artificial delay
// is inserted. It returns the number of snapshots written.
func ReplayLog(ctx context.Context, r io.Reader, writer SnapshotWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var snap telemetry.Snapshot
		if err := dec.Decode(&snap); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		if !prev.IsZero() && speed > 0 {
			diff := time.Duration(float64(snap.GeneratedAt.Sub(prev)) / speed)
			if diff > 0 {
				timer := time.NewTimer(diff)
				select {
				case <-ctx.Done():
					timer.Stop()
					return n, ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := writer.WriteSnapshot(snap); err != nil {
			return n, err
		}
		n++
		prev = snap.GeneratedAt
	}
}

// ReplayLogFile opens a file and replays its snapshots.
func ReplayLogFile(ctx context.Context, path string, writer SnapshotWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
