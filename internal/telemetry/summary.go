package telemetry

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	nominalNarrative    = "System optimized. All nodes operating within efficiency targets."
	loadBalanceSavingsW = 23
)

// Summarize derives fleet aggregates from a node population.
func Summarize(nodes []NodeReading, lastOptimization time.Time) FleetSummary {
	s := FleetSummary{NodeCount: len(nodes), LastOptimization: lastOptimization}
	var energy, traffic float64
	for _, n := range nodes {
		energy += n.EnergyW
		traffic += n.TrafficMbps
		switch n.State {
		case StateActive:
			s.ActiveNodes++
		case StateThrottled:
			s.ThrottledNodes++
		case StateSleeping:
			s.SleepingNodes++
		}
	}
	s.TotalEnergyW = round1(energy)
	s.TotalTrafficMbps = round1(traffic)
	s.BaselineEnergyW = round1(s.TotalEnergyW * BaselineMultiplier)
	s.EnergySavedW = EnergySaved(s.TotalEnergyW)
	s.AIActionKind, s.AIAction = recommend(nodes, s)
	return s
}

// EnergySaved returns the simulated savings against the flat baseline.
func EnergySaved(totalEnergyW float64) float64 {
	return round1(totalEnergyW * (BaselineMultiplier - 1))
}

// LoadBalanceThreshold is the active-node count above which the load
// balancing narrative is chosen: two thirds of the population, 8 of 12.
func LoadBalanceThreshold(nodeCount int) int {
	return nodeCount * 2 / 3
}

// recommend is a placeholder policy over the realized counts. It picks a
// canned narrative and decorates it with node ids from the snapshot; it does
// not plan anything.
func recommend(nodes []NodeReading, s FleetSummary) (kind, narrative string) {
	if s.ActiveNodes <= LoadBalanceThreshold(s.NodeCount) {
		return RecommendNominal, nominalNarrative
	}
	from := busiestActive(nodes, 2)
	to := standbyTargets(nodes, from, 2)
	target := "standby capacity"
	if len(to) > 0 {
		target = strings.Join(to, ", ")
	}
	return RecommendLoadBalancing, fmt.Sprintf(
		"Automated load balancing: Redistributed traffic from %s to %s. Expected energy savings: %dW",
		strings.Join(from, ", "), target, loadBalanceSavingsW)
}

// busiestActive returns up to n active node ids by descending traffic.
func busiestActive(nodes []NodeReading, n int) []string {
	var active []NodeReading
	for _, node := range nodes {
		if node.State == StateActive {
			active = append(active, node)
		}
	}
	slices.SortStableFunc(active, func(a, b NodeReading) int {
		switch {
		case a.TrafficMbps > b.TrafficMbps:
			return -1
		case a.TrafficMbps < b.TrafficMbps:
			return 1
		}
		return 0
	})
	ids := make([]string, 0, n)
	for _, node := range active[:min(n, len(active))] {
		ids = append(ids, node.NodeID)
	}
	return ids
}

// standbyTargets returns up to n node ids able to absorb traffic, preferring
// throttled nodes, then sleeping ones, then the quietest remaining nodes.
func standbyTargets(nodes []NodeReading, exclude []string, n int) []string {
	rank := map[OperatingState]int{StateThrottled: 0, StateSleeping: 1, StateActive: 2}
	var candidates []NodeReading
	for _, node := range nodes {
		if !slices.Contains(exclude, node.NodeID) {
			candidates = append(candidates, node)
		}
	}
	slices.SortStableFunc(candidates, func(a, b NodeReading) int {
		if ra, rb := rank[a.State], rank[b.State]; ra != rb {
			return ra - rb
		}
		switch {
		case a.TrafficMbps < b.TrafficMbps:
			return -1
		case a.TrafficMbps > b.TrafficMbps:
			return 1
		}
		return 0
	})
	ids := make([]string, 0, n)
	for _, node := range candidates[:min(n, len(candidates))] {
		ids = append(ids, node.NodeID)
	}
	return ids
}
