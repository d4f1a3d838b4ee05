package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

const namespace = "netenergy"

// Metrics exposes Prometheus collectors for generation and agent activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	generations   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	genDuration   *prometheus.HistogramVec
	fleetEnergy   prometheus.Gauge
	fleetTraffic  prometheus.Gauge
	energySaved   prometheus.Gauge
	nodesByState  *prometheus.GaugeVec
	agentMessages *prometheus.CounterVec
}

// MustNewMetrics registers the collectors on reg and panics on conflict.
// A nil reg uses a fresh registry.
func MustNewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generated snapshots and log batches.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Generation calls that returned an error or panicked.",
		}, []string{"kind"}),
		genDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent producing one snapshot or log batch.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05},
		}, []string{"kind"}),
		fleetEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "energy_watts",
			Help:      "Total energy of the latest snapshot.",
		}),
		fleetTraffic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "traffic_mbps",
			Help:      "Total traffic of the latest snapshot.",
		}),
		energySaved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "energy_saved_watts",
			Help:      "Energy saved against the unoptimized baseline in the latest snapshot.",
		}),
		nodesByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "nodes",
			Help:      "Nodes per operating state in the latest snapshot.",
		}, []string{"status"}),
		agentMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agents",
			Name:      "messages_total",
			Help:      "Agent messages emitted by the scheduler.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(m.generations, m.failures, m.genDuration, m.fleetEnergy,
		m.fleetTraffic, m.energySaved, m.nodesByState, m.agentMessages)
	return m
}

// ObserveSnapshot records a generated snapshot and updates the fleet gauges.
func (m *Metrics) ObserveSnapshot(s telemetry.Snapshot, took time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues("snapshot").Inc()
	m.genDuration.WithLabelValues("snapshot").Observe(took.Seconds())
	m.fleetEnergy.Set(s.Summary.TotalEnergyW)
	m.fleetTraffic.Set(s.Summary.TotalTrafficMbps)
	m.energySaved.Set(s.Summary.EnergySavedW)
	m.nodesByState.WithLabelValues(string(telemetry.StateActive)).Set(float64(s.Summary.ActiveNodes))
	m.nodesByState.WithLabelValues(string(telemetry.StateThrottled)).Set(float64(s.Summary.ThrottledNodes))
	m.nodesByState.WithLabelValues(string(telemetry.StateSleeping)).Set(float64(s.Summary.SleepingNodes))
}

// ObserveLogBatch records a generated log batch.
func (m *Metrics) ObserveLogBatch(took time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues("logs").Inc()
	m.genDuration.WithLabelValues("logs").Observe(took.Seconds())
}

// Failure counts a failed generation of the given kind ("snapshot" or "logs").
func (m *Metrics) Failure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveMessage counts an emitted agent message. It matches the
// Scheduler.OnTick hook signature.
func (m *Metrics) ObserveMessage(msg agents.Message) {
	if m == nil {
		return
	}
	m.agentMessages.WithLabelValues(string(msg.From), string(msg.To)).Inc()
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
