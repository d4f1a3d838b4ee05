package telemetry

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const logWindow = time.Hour

// actionProxy maps a log action onto the state whose ranges it borrows.
var actionProxy = map[Action]OperatingState{
	ActionActivate: StateActive,
	ActionMonitor:  StateActive,
	ActionThrottle: StateThrottled,
	ActionSleep:    StateSleeping,
}

var savingsRange = map[Action]span{
	ActionThrottle: {10, 50},
	ActionSleep:    {20, 100},
}

// LogBatch draws count independent log entries sorted newest first.
func (g *Generator) LogBatch(count int) ([]DataLogEntry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("log batch of %d entries: %w", count, ErrInvalidCount)
	}
	logs := g.drawLogs(count, g.now().UTC())
	SortLogs(logs)
	return logs, nil
}

func (g *Generator) drawLogs(count int, now time.Time) []DataLogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	logs := make([]DataLogEntry, count)
	for i := range logs {
		logs[i] = g.drawLogEntry(now)
	}
	return logs
}

func (g *Generator) drawLogEntry(now time.Time) DataLogEntry {
	action := Actions[g.rand.IntN(len(Actions))]
	p := profiles[actionProxy[action]]
	entry := DataLogEntry{
		ID:          "log-" + uuid.NewString(),
		NodeID:      NodeID(g.rand.IntN(g.population) + 1),
		TrafficMbps: floor1(p.traffic.draw(g.rand)),
		EnergyW:     floor1(p.energy.draw(g.rand)),
		Action:      action,
		Timestamp:   now.Add(-jitter(g.rand, logWindow)),
	}
	if r, ok := savingsRange[action]; ok {
		entry.EnergySavedW = floor1(r.draw(g.rand))
	}
	return entry
}

// SortLogs orders entries by timestamp, most recent first.
func SortLogs(logs []DataLogEntry) {
	slices.SortStableFunc(logs, func(a, b DataLogEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
