package sim

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// pointWriter is satisfied by api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxWriter writes snapshots and agent messages to an InfluxDB v2 bucket.
type InfluxWriter struct {
	client influxdb2.Client
	api    pointWriter
}

// NewInfluxWriter connects to url and verifies the server is healthy.
func NewInfluxWriter(ctx context.Context, url, token, org, bucket string) (*InfluxWriter, error) {
	client := influxdb2.NewClient(url, token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	return &InfluxWriter{client: client, api: client.WriteAPIBlocking(org, bucket)}, nil
}

// WriteSnapshot writes one "node_energy" point per node and one
// "fleet_summary" point.
func (w *InfluxWriter) WriteSnapshot(s telemetry.Snapshot) error {
	points := make([]*write.Point, 0, len(s.Nodes)+1)
	for _, n := range s.Nodes {
		points = append(points, write.NewPoint(
			"node_energy",
			map[string]string{"node_id": n.NodeID, "status": string(n.State)},
			map[string]interface{}{"traffic_mbps": n.TrafficMbps, "energy_w": n.EnergyW},
			n.LastUpdate,
		))
	}
	sum := s.Summary
	points = append(points, write.NewPoint(
		"fleet_summary",
		map[string]string{"ai_action_kind": sum.AIActionKind},
		map[string]interface{}{
			"total_energy_w":     sum.TotalEnergyW,
			"total_traffic_mbps": sum.TotalTrafficMbps,
			"baseline_energy_w":  sum.BaselineEnergyW,
			"energy_saved_w":     sum.EnergySavedW,
			"active_nodes":       sum.ActiveNodes,
			"throttled_nodes":    sum.ThrottledNodes,
			"sleeping_nodes":     sum.SleepingNodes,
		},
		s.GeneratedAt,
	))
	return w.api.WritePoint(context.Background(), points...)
}

// WriteMessage writes one "agent_message" point.
func (w *InfluxWriter) WriteMessage(m agents.Message) error {
	p := write.NewPoint(
		"agent_message",
		map[string]string{"from": string(m.From), "to": string(m.To)},
		map[string]interface{}{"id": m.ID, "content": m.Content},
		m.Timestamp,
	)
	return w.api.WritePoint(context.Background(), p)
}

// Close releases the underlying HTTP client.
func (w *InfluxWriter) Close() error {
	if w.client != nil {
		w.client.Close()
	}
	return nil
}
