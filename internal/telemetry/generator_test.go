package telemetry

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 1, 11, 10, 30, 0, 0, time.UTC)

func newTestGenerator(seed uint64, opts ...Option) *Generator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewGenerator(rand.NewPCG(seed, seed+1), opts...)
}

func TestSnapshotReadingsWithinStateRanges(t *testing.T) {
	gen := newTestGenerator(1)
	for i := 0; i < 200; i++ {
		snap, err := gen.Snapshot(DefaultNodeCount)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if len(snap.Nodes) != DefaultNodeCount {
			t.Fatalf("expected %d nodes, got %d", DefaultNodeCount, len(snap.Nodes))
		}
		for _, n := range snap.Nodes {
			p, ok := profiles[n.State]
			if !ok {
				t.Fatalf("unexpected state %q", n.State)
			}
			if n.TrafficMbps < 0 || n.EnergyW < 0 {
				t.Fatalf("negative reading: %+v", n)
			}
			// rounding to one decimal may land on the upper bound
			if n.TrafficMbps < p.traffic.Min || n.TrafficMbps > p.traffic.Max {
				t.Errorf("%s traffic %.1f outside %v", n.State, n.TrafficMbps, p.traffic)
			}
			if n.EnergyW < p.energy.Min || n.EnergyW > p.energy.Max {
				t.Errorf("%s energy %.1f outside %v", n.State, n.EnergyW, p.energy)
			}
			if n.TrafficMbps != round1(n.TrafficMbps) || n.EnergyW != round1(n.EnergyW) {
				t.Errorf("values not rounded to one decimal: %+v", n)
			}
			age := fixedNow.Sub(n.LastUpdate)
			if age < 0 || age >= lastUpdateWindow {
				t.Errorf("last_update %v outside trailing minute", n.LastUpdate)
			}
		}
	}
}

func TestSnapshotNodeIDsSequential(t *testing.T) {
	snap, err := newTestGenerator(2).Snapshot(12)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for i, n := range snap.Nodes {
		if want := NodeID(i + 1); n.NodeID != want {
			t.Errorf("node %d id = %s, want %s", i, n.NodeID, want)
		}
	}
	if snap.Nodes[0].NodeID != "NODE-001" || snap.Nodes[11].NodeID != "NODE-012" {
		t.Errorf("unexpected id format: %s .. %s", snap.Nodes[0].NodeID, snap.Nodes[11].NodeID)
	}
}

func TestSnapshotSummaryInvariants(t *testing.T) {
	gen := newTestGenerator(3)
	for i := 0; i < 200; i++ {
		snap, err := gen.Snapshot(DefaultNodeCount)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		s := snap.Summary
		if s.ActiveNodes+s.ThrottledNodes+s.SleepingNodes != s.NodeCount || s.NodeCount != len(snap.Nodes) {
			t.Fatalf("state counts do not add up: %+v", s)
		}
		if want := round1(s.TotalEnergyW * (BaselineMultiplier - 1)); s.EnergySavedW != want {
			t.Errorf("energy_saved_w = %.1f, want %.1f", s.EnergySavedW, want)
		}
		if diff := math.Abs(s.EnergySavedW - s.TotalEnergyW*0.35); diff > 0.05+1e-9 {
			t.Errorf("energy_saved_w %.1f too far from 35%% of %.1f", s.EnergySavedW, s.TotalEnergyW)
		}
		var energy float64
		for _, n := range snap.Nodes {
			energy += n.EnergyW
		}
		if math.Abs(s.TotalEnergyW-energy) > 0.05 {
			t.Errorf("total_energy_w %.1f != sum %.1f", s.TotalEnergyW, energy)
		}
		age := fixedNow.Sub(s.LastOptimization)
		if age < 0 || age >= lastOptimizationWindow {
			t.Errorf("last_optimization %v outside trailing 5 minutes", s.LastOptimization)
		}
	}
}

func TestSnapshotAllActiveRecommendsLoadBalancing(t *testing.T) {
	gen := newTestGenerator(4, WithStateSelector(FixedState(StateActive)))
	snap, err := gen.Snapshot(12)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	s := snap.Summary
	if s.ActiveNodes != 12 || s.ThrottledNodes != 0 || s.SleepingNodes != 0 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.AIActionKind != RecommendLoadBalancing {
		t.Fatalf("expected load balancing, got %q", s.AIActionKind)
	}
	if !strings.HasPrefix(s.AIAction, "Automated load balancing") {
		t.Errorf("unexpected narrative: %q", s.AIAction)
	}
	if strings.Count(s.AIAction, "NODE-") != 4 {
		t.Errorf("expected four illustrative node ids in %q", s.AIAction)
	}
}

func TestSnapshotNominalBelowThreshold(t *testing.T) {
	gen := newTestGenerator(5, WithStateSelector(FixedState(StateSleeping)))
	snap, err := gen.Snapshot(12)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Summary.AIActionKind != RecommendNominal || snap.Summary.AIAction != nominalNarrative {
		t.Errorf("expected nominal narrative, got %q", snap.Summary.AIAction)
	}
}

func TestLoadBalanceThreshold(t *testing.T) {
	cases := map[int]int{12: 8, 3: 2, 1: 0, 30: 20}
	for n, want := range cases {
		if got := LoadBalanceThreshold(n); got != want {
			t.Errorf("LoadBalanceThreshold(%d)=%d, want %d", n, got, want)
		}
	}
}

func TestSummarizeNamesThrottledTargets(t *testing.T) {
	var nodes []NodeReading
	for i := 1; i <= 10; i++ {
		nodes = append(nodes, NodeReading{NodeID: NodeID(i), State: StateActive, TrafficMbps: float64(100 * i), EnergyW: 150})
	}
	nodes = append(nodes,
		NodeReading{NodeID: NodeID(11), State: StateSleeping, TrafficMbps: 1, EnergyW: 6},
		NodeReading{NodeID: NodeID(12), State: StateThrottled, TrafficMbps: 80, EnergyW: 60},
	)
	s := Summarize(nodes, fixedNow)
	want := "Redistributed traffic from NODE-010, NODE-009 to NODE-012, NODE-011."
	if !strings.Contains(s.AIAction, want) {
		t.Errorf("narrative %q does not contain %q", s.AIAction, want)
	}
	if s.TotalEnergyW != 1566 {
		t.Errorf("total energy = %.1f, want 1566", s.TotalEnergyW)
	}
	if s.BaselineEnergyW != 2114.1 {
		t.Errorf("baseline energy = %.1f, want 2114.1", s.BaselineEnergyW)
	}
	if s.EnergySavedW != 548.1 {
		t.Errorf("energy saved = %.1f, want 548.1", s.EnergySavedW)
	}
}

func TestSnapshotRejectsNonPositiveCount(t *testing.T) {
	gen := newTestGenerator(6)
	for _, n := range []int{0, -1} {
		snap, err := gen.Snapshot(n)
		if !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Snapshot(%d) err = %v, want ErrInvalidCount", n, err)
		}
		if len(snap.Nodes) != 0 {
			t.Errorf("Snapshot(%d) returned %d nodes", n, len(snap.Nodes))
		}
	}
}

func TestSnapshotUnknownStateFails(t *testing.T) {
	gen := newTestGenerator(7, WithStateSelector(FixedState("overclocked")))
	if _, err := gen.Snapshot(3); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestSnapshotDeterministicForSeed(t *testing.T) {
	a, _ := newTestGenerator(42).Snapshot(12)
	b, _ := newTestGenerator(42).Snapshot(12)
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Fatalf("node %d differs for equal seeds: %+v vs %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
	if a.Summary != b.Summary {
		t.Errorf("summaries differ for equal seeds")
	}
}

func TestSnapshotConcurrentCallers(t *testing.T) {
	gen := newTestGenerator(8)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := gen.Snapshot(12)
			if err != nil {
				errs <- err
				return
			}
			s := snap.Summary
			if s.ActiveNodes+s.ThrottledNodes+s.SleepingNodes != 12 {
				errs <- errors.New("counts do not add up")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSnapshotRecoversAfterSelectorPanic(t *testing.T) {
	calls := 0
	sel := func(r *rand.Rand) OperatingState {
		calls++
		if calls == 1 {
			panic("selector failure")
		}
		return StateActive
	}
	g := newTestGenerator(5, WithStateSelector(sel))
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic from selector")
			}
		}()
		_, _ = g.Snapshot(3)
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := g.Snapshot(3); err != nil {
			t.Errorf("Snapshot after panic: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("generator stayed locked after panic")
	}
}
