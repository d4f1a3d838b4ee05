// ColorStdoutWriter prints human-friendly, colorized output to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var agentPalette = map[agents.Agent]string{
	agents.AgentIngest:   colorBlue,
	agents.AgentDecision: colorMagenta,
	agents.AgentAction:   colorGreen,
}

func stateColor(s telemetry.OperatingState) string {
	switch s {
	case telemetry.StateThrottled:
		return colorYellow
	case telemetry.StateSleeping:
		return colorGray
	}
	return colorGreen
}

func agentColor(a agents.Agent) string {
	if c, ok := agentPalette[a]; ok {
		return c
	}
	return colorReset
}

// ColorStdoutWriter prints snapshots as a node table and messages as
// colored chat lines.
type ColorStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout}
}

// WriteSnapshot prints the summary line, the AI action and one row per node.
func (w *ColorStdoutWriter) WriteSnapshot(s telemetry.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sum := s.Summary
	fmt.Fprintf(w.out, "%s[%s]%s %sSNAPSHOT%s energy=%.1fW traffic=%.1fMbps saved=%s%.1fW%s active=%d throttled=%d sleeping=%d\n",
		colorGray, s.GeneratedAt.Format(time.RFC3339), colorReset,
		colorCyan, colorReset,
		sum.TotalEnergyW, sum.TotalTrafficMbps,
		colorGreen, sum.EnergySavedW, colorReset,
		sum.ActiveNodes, sum.ThrottledNodes, sum.SleepingNodes)
	actionColor := colorGreen
	if sum.AIActionKind == telemetry.RecommendLoadBalancing {
		actionColor = colorYellow
	}
	fmt.Fprintf(w.out, "  %s%s%s\n", actionColor, sum.AIAction, colorReset)

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NODE\tTRAFFIC\tENERGY\tSTATUS\tUPDATED")
	for _, n := range s.Nodes {
		fmt.Fprintf(tw, "  %s\t%.1f\t%.1f\t%s%s%s\t%s\n",
			n.NodeID, n.TrafficMbps, n.EnergyW,
			stateColor(n.State), n.State, colorReset,
			n.LastUpdate.Format(time.TimeOnly))
	}
	return tw.Flush()
}

// WriteMessage prints an agent message as "[ts] from -> to: content".
func (w *ColorStdoutWriter) WriteMessage(m agents.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %s%s%s -> %s%s%s: %s\n",
		colorGray, m.Timestamp.Format(time.RFC3339), colorReset,
		agentColor(m.From), m.From, colorReset,
		agentColor(m.To), m.To, colorReset,
		m.Content)
	return err
}

// WriteLogs prints one line per optimization log entry.
func (w *ColorStdoutWriter) WriteLogs(logs []telemetry.DataLogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, l := range logs {
		c := colorYellow
		if l.Action == telemetry.ActionSleep {
			c = colorGray
		}
		fmt.Fprintf(w.out, "%s[%s]%s %s %s%s%s traffic=%.1f energy=%.1f saved=%s%.1fW%s\n",
			colorGray, l.Timestamp.Format(time.RFC3339), colorReset,
			l.NodeID, c, l.Action, colorReset,
			l.TrafficMbps, l.EnergyW, colorGreen, l.EnergySavedW, colorReset)
	}
	return nil
}
