package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// Default GreptimeDB table names.
const (
	NodeTable    = "node_telemetry"
	SummaryTable = "fleet_summary"
	MessageTable = "agent_messages"
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes snapshots and agent messages to GreptimeDB via the
// ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client       greptimeClient
	nodeTable    string
	summaryTable string
	messageTable string
	logger       *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") using the
// given database.
func NewGreptimeDBWriter(endpoint, database string, logger *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, 0
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: invalid port: %w", endpoint, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port != 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return newGreptimeDBWriter(client, logger), nil
}

func newGreptimeDBWriter(client greptimeClient, logger *slog.Logger) *GreptimeDBWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GreptimeDBWriter{
		client:       client,
		nodeTable:    NodeTable,
		summaryTable: SummaryTable,
		messageTable: MessageTable,
		logger:       logger,
	}
}

// WriteSnapshot inserts one row per node plus one summary row.
func (w *GreptimeDBWriter) WriteSnapshot(s telemetry.Snapshot) error {
	nodes, err := table.New(w.nodeTable)
	if err != nil {
		return err
	}
	nodes.AddTagColumn("node_id", types.STRING)
	nodes.AddFieldColumn("traffic_mbps", types.FLOAT64)
	nodes.AddFieldColumn("energy_w", types.FLOAT64)
	nodes.AddFieldColumn("status", types.STRING)
	nodes.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, n := range s.Nodes {
		if err := nodes.AddRow(n.NodeID, n.TrafficMbps, n.EnergyW, string(n.State), n.LastUpdate); err != nil {
			return err
		}
	}

	summary, err := table.New(w.summaryTable)
	if err != nil {
		return err
	}
	summary.AddFieldColumn("total_energy_w", types.FLOAT64)
	summary.AddFieldColumn("total_traffic_mbps", types.FLOAT64)
	summary.AddFieldColumn("baseline_energy_w", types.FLOAT64)
	summary.AddFieldColumn("energy_saved_w", types.FLOAT64)
	summary.AddFieldColumn("active_nodes", types.INT64)
	summary.AddFieldColumn("throttled_nodes", types.INT64)
	summary.AddFieldColumn("sleeping_nodes", types.INT64)
	summary.AddFieldColumn("ai_action_kind", types.STRING)
	summary.AddFieldColumn("ai_action", types.STRING)
	summary.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	sum := s.Summary
	if err := summary.AddRow(sum.TotalEnergyW, sum.TotalTrafficMbps, sum.BaselineEnergyW, sum.EnergySavedW,
		int64(sum.ActiveNodes), int64(sum.ThrottledNodes), int64(sum.SleepingNodes),
		sum.AIActionKind, sum.AIAction, s.GeneratedAt); err != nil {
		return err
	}

	if _, err := w.client.Write(context.Background(), nodes, summary); err != nil {
		w.logger.Error("greptime snapshot write failed", "err", err)
		return err
	}
	w.logger.Debug("greptime snapshot written", "nodes", len(s.Nodes))
	return nil
}

// WriteMessage inserts one agent message row.
func (w *GreptimeDBWriter) WriteMessage(m agents.Message) error {
	tbl, err := table.New(w.messageTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("from_agent", types.STRING)
	tbl.AddTagColumn("to_agent", types.STRING)
	tbl.AddFieldColumn("id", types.STRING)
	tbl.AddFieldColumn("content", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	if err := tbl.AddRow(string(m.From), string(m.To), m.ID, m.Content, m.Timestamp); err != nil {
		return err
	}
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.logger.Error("greptime message write failed", "err", err)
		return err
	}
	return nil
}
