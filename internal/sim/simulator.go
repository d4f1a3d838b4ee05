// Simulator refreshing fleet snapshots on a ticker
package sim

import (
	"context"
	"fmt"
	"time"

	"netenergy-sim/internal/logging"
	"netenergy-sim/internal/metrics"
	"netenergy-sim/internal/telemetry"
)

// DefaultRefreshInterval is the reference snapshot refresh period.
const DefaultRefreshInterval = 30 * time.Second

// Simulator owns a telemetry generator, answers on-demand snapshot and log
// queries, and periodically refreshes the latest snapshot into a writer.
type Simulator struct {
	gen       *telemetry.Generator
	nodeCount int
	logBatch  int
	interval  time.Duration
	writer    SnapshotWriter
	metrics   *metrics.Metrics
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithWriter sets the sink for refreshed snapshots and log batches.
func WithWriter(w SnapshotWriter) Option { return func(s *Simulator) { s.writer = w } }

// WithMetrics records generation activity.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Simulator) { s.metrics = m } }

// WithRefreshInterval overrides the ticker period used by Run.
func WithRefreshInterval(d time.Duration) Option { return func(s *Simulator) { s.interval = d } }

// WithNodeCount sets the snapshot population size.
func WithNodeCount(n int) Option { return func(s *Simulator) { s.nodeCount = n } }

// WithLogBatchSize sets the number of entries per log batch.
func WithLogBatchSize(n int) Option { return func(s *Simulator) { s.logBatch = n } }

// NewSimulator creates a simulator over gen.
func NewSimulator(gen *telemetry.Generator, opts ...Option) *Simulator {
	s := &Simulator{
		gen:       gen,
		nodeCount: telemetry.DefaultNodeCount,
		logBatch:  telemetry.DefaultLogBatchSize,
		interval:  DefaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot generates a fresh snapshot. A panic during generation is
// returned as an error.
func (s *Simulator) Snapshot(ctx context.Context) (snap telemetry.Snapshot, err error) {
	if err := ctx.Err(); err != nil {
		return telemetry.Snapshot{}, err
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			snap, err = telemetry.Snapshot{}, fmt.Errorf("snapshot generation panicked: %v", r)
		}
		if err != nil {
			s.metrics.Failure("snapshot")
		}
	}()
	snap, err = s.gen.Snapshot(s.nodeCount)
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	s.metrics.ObserveSnapshot(snap, time.Since(start))
	return snap, nil
}

// Logs generates a fresh batch of optimization log entries, newest first.
func (s *Simulator) Logs(ctx context.Context) (logs []telemetry.DataLogEntry, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logs, err = nil, fmt.Errorf("log generation panicked: %v", r)
		}
		if err != nil {
			s.metrics.Failure("logs")
		}
	}()
	logs, err = s.gen.LogBatch(s.logBatch)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLogBatch(time.Since(start))
	return logs, nil
}

// Refresh generates one snapshot and one log batch and hands them to the
// writer. Writer failures are logged and do not stop the refresher.
func (s *Simulator) Refresh(ctx context.Context) error {
	log := logging.FromContext(ctx)
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	log.Debug("snapshot refreshed",
		"total_energy_w", snap.Summary.TotalEnergyW,
		"energy_saved_w", snap.Summary.EnergySavedW,
		"ai_action_kind", snap.Summary.AIActionKind)
	if s.writer == nil {
		return nil
	}
	if err := s.writer.WriteSnapshot(snap); err != nil {
		log.Warn("snapshot write failed", "err", err)
	}
	if lw, ok := s.writer.(logBatchWriter); ok {
		logs, err := s.Logs(ctx)
		if err != nil {
			return err
		}
		if err := lw.WriteLogs(logs); err != nil {
			log.Warn("log batch write failed", "err", err)
		}
	}
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done.
// Generation failures are logged and retried on the next tick.
func (s *Simulator) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", s.interval)
	}
	log := logging.FromContext(ctx)
	log.Info("starting snapshot refresher", "interval", s.interval, "nodes", s.nodeCount)

	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Error("snapshot refresh failed", "err", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping snapshot refresher")
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Error("snapshot refresh failed", "err", err)
			}
		}
	}
}
