package telemetry

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// BaselineMultiplier is the assumed pre-optimization energy ratio used for
// the savings figure. It is applied uniformly regardless of the state mix.
const BaselineMultiplier = 1.35

// Reference population and batch sizes served by the dashboard API.
const (
	DefaultNodeCount    = 12
	DefaultLogBatchSize = 20
)

const (
	lastUpdateWindow       = 60 * time.Second
	lastOptimizationWindow = 5 * time.Minute
)

// span is a uniform continuous range [Min, Max).
type span struct {
	Min, Max float64
}

func (s span) draw(r *rand.Rand) float64 {
	return s.Min + r.Float64()*(s.Max-s.Min)
}

type stateProfile struct {
	traffic span
	energy  span
}

var profiles = map[OperatingState]stateProfile{
	StateActive:    {traffic: span{200, 1000}, energy: span{100, 250}},
	StateThrottled: {traffic: span{50, 250}, energy: span{40, 120}},
	StateSleeping:  {traffic: span{0, 20}, energy: span{5, 25}},
}

// StateSelector picks the operating state of the next node.
type StateSelector func(r *rand.Rand) OperatingState

// UniformState draws one of States with equal probability.
func UniformState(r *rand.Rand) OperatingState {
	return States[r.IntN(len(States))]
}

// FixedState returns a selector that always yields state.
func FixedState(state OperatingState) StateSelector {
	return func(*rand.Rand) OperatingState { return state }
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithStateSelector overrides the per-node state draw.
func WithStateSelector(sel StateSelector) Option {
	return func(g *Generator) { g.selectState = sel }
}

// WithPopulation sets the node population that log entries refer to.
func WithPopulation(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.population = n
		}
	}
}

// Generator produces telemetry snapshots and log batches from an injected
// random source. Calls are independent; the mutex only guards the source.
type Generator struct {
	mu          sync.Mutex
	rand        *rand.Rand
	now         func() time.Time
	selectState StateSelector
	population  int
}

// NewSource returns a PCG source for seed. A zero seed is replaced by the
// current time so unseeded runs differ.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// NewGenerator creates a generator drawing from src.
func NewGenerator(src rand.Source, opts ...Option) *Generator {
	if src == nil {
		src = NewSource(0)
	}
	g := &Generator{
		rand:        rand.New(src),
		now:         time.Now,
		selectState: UniformState,
		population:  DefaultNodeCount,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot generates nodeCount readings and their fleet summary.
func (g *Generator) Snapshot(nodeCount int) (Snapshot, error) {
	if nodeCount <= 0 {
		return Snapshot{}, fmt.Errorf("snapshot of %d nodes: %w", nodeCount, ErrInvalidCount)
	}
	now := g.now().UTC()
	nodes, lastOpt, err := g.drawPopulation(nodeCount, now)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		GeneratedAt: now,
		Nodes:       nodes,
		Summary:     Summarize(nodes, lastOpt),
	}, nil
}

func (g *Generator) drawPopulation(nodeCount int, now time.Time) ([]NodeReading, time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := make([]NodeReading, nodeCount)
	for i := range nodes {
		n, err := g.drawNode(i+1, now)
		if err != nil {
			return nil, time.Time{}, err
		}
		nodes[i] = n
	}
	return nodes, now.Add(-jitter(g.rand, lastOptimizationWindow)), nil
}

func (g *Generator) drawNode(seq int, now time.Time) (NodeReading, error) {
	state := g.selectState(g.rand)
	p, ok := profiles[state]
	if !ok {
		return NodeReading{}, fmt.Errorf("node %s: unknown operating state %q", NodeID(seq), state)
	}
	return NodeReading{
		NodeID:      NodeID(seq),
		TrafficMbps: round1(p.traffic.draw(g.rand)),
		EnergyW:     round1(p.energy.draw(g.rand)),
		State:       state,
		LastUpdate:  now.Add(-jitter(g.rand, lastUpdateWindow)),
	}, nil
}

// jitter returns a uniform duration in [0, window).
func jitter(r *rand.Rand, window time.Duration) time.Duration {
	return time.Duration(r.Float64() * float64(window))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func floor1(v float64) float64 {
	return math.Floor(v*10) / 10
}
