// Telemetry structs shared by the generator, the API and the sinks
package telemetry

import (
	"errors"
	"fmt"
	"time"
)

// OperatingState is the categorical mode conditioning a node's traffic and energy draw.
type OperatingState string

// Operating states.
const (
	StateActive    OperatingState = "active"
	StateThrottled OperatingState = "throttled"
	StateSleeping  OperatingState = "sleeping"
)

// States lists every operating state in draw order.
var States = []OperatingState{StateActive, StateThrottled, StateSleeping}

// Action is the kind of step recorded in the historical data log.
type Action string

// Log actions.
const (
	ActionThrottle Action = "throttle"
	ActionSleep    Action = "sleep"
	ActionActivate Action = "activate"
	ActionMonitor  Action = "monitor"
)

// Actions lists every log action in draw order.
var Actions = []Action{ActionThrottle, ActionSleep, ActionActivate, ActionMonitor}

// Recommendation kinds reported alongside the narrative.
const (
	RecommendLoadBalancing = "load_balancing"
	RecommendNominal       = "nominal"
)

// ErrInvalidCount is returned when a population or batch size is not positive.
var ErrInvalidCount = errors.New("telemetry: count must be positive")

// NodeReading is one simulated network element within a snapshot.
type NodeReading struct {
	NodeID      string         `json:"node_id"`
	TrafficMbps float64        `json:"traffic_mbps"`
	EnergyW     float64        `json:"energy_w"`
	State       OperatingState `json:"status"`
	LastUpdate  time.Time      `json:"last_update"`
}

// FleetSummary aggregates one snapshot's population.
type FleetSummary struct {
	TotalEnergyW     float64   `json:"total_energy_w"`
	TotalTrafficMbps float64   `json:"total_traffic_mbps"`
	ActiveNodes      int       `json:"active_nodes"`
	ThrottledNodes   int       `json:"throttled_nodes"`
	SleepingNodes    int       `json:"sleeping_nodes"`
	NodeCount        int       `json:"node_count"`
	BaselineEnergyW  float64   `json:"baseline_energy_w"`
	EnergySavedW     float64   `json:"energy_saved_w"`
	LastOptimization time.Time `json:"last_optimization"`
	AIAction         string    `json:"ai_action"`
	AIActionKind     string    `json:"ai_action_kind"`
}

// Snapshot is one complete generation of the node population plus its summary.
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Nodes       []NodeReading `json:"nodes"`
	Summary     FleetSummary  `json:"summary"`
}

// DataLogEntry is one historical optimization action.
type DataLogEntry struct {
	ID           string    `json:"id"`
	NodeID       string    `json:"node_id"`
	TrafficMbps  float64   `json:"traffic_mbps"`
	EnergyW      float64   `json:"energy_w"`
	Action       Action    `json:"action"`
	EnergySavedW float64   `json:"energy_saved"`
	Timestamp    time.Time `json:"timestamp"`
}

// NodeID formats the identifier for the node at 1-based sequence seq.
func NodeID(seq int) string {
	return fmt.Sprintf("NODE-%03d", seq)
}
