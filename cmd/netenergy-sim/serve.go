package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"netenergy-sim/internal/admin"
	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/config"
	"netenergy-sim/internal/logging"
	"netenergy-sim/internal/metrics"
	"netenergy-sim/internal/sim"
	"netenergy-sim/internal/telemetry"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, snapshot refresher and agent scheduler",
		Long:  "serve exposes node snapshots, data logs and agent messages over HTTP while refreshing snapshots into the configured sinks.",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, writerOptions{
				printOnly: v.GetBool("print-only"),
				tui:       v.GetBool("tui"),
			})
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "Admin API listen address (default from config, :8080)")
	f.String("actions-file", "", "JSON fixture served at /data/actions.json")
	f.Duration("refresh", 0, "Snapshot refresh interval (e.g. 30s)")
	f.Duration("message-interval", 0, "Agent message interval (e.g. 3s)")
	f.String("log-file", "", "Path to export snapshots as JSONL (messages go to <path>.messages)")
	f.String("greptime-endpoint", "", "GreptimeDB endpoint host[:port]")
	f.String("greptime-database", "", "GreptimeDB database")
	f.String("influx-url", "", "InfluxDB v2 URL")
	f.String("influx-token", "", "InfluxDB v2 token")
	f.String("influx-org", "", "InfluxDB v2 organization")
	f.String("influx-bucket", "", "InfluxDB v2 bucket")
	f.Bool("print-only", false, "Only print to STDOUT, ignoring database sinks")
	f.Bool("tui", false, "Render snapshots and messages in a terminal UI")
	_ = v.BindEnv("greptime-endpoint", envPrefix+"_GREPTIME_ENDPOINT", "GREPTIMEDB_ENDPOINT")
	return cmd
}

func serve(ctx context.Context, cfg *config.OptimizerConfig, opts writerOptions) error {
	var logOut io.Writer = os.Stderr
	if opts.tui {
		logOut = io.Discard
	}
	logger := newLogger(logOut, cfg)
	ctx = logging.NewContext(ctx, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	writer, cleanup, err := newWriters(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	gen := telemetry.NewGenerator(telemetry.NewSource(cfg.Population.Seed),
		telemetry.WithPopulation(cfg.Population.NodeCount))
	simulator := sim.NewSimulator(gen,
		sim.WithWriter(writer),
		sim.WithMetrics(m),
		sim.WithNodeCount(cfg.Population.NodeCount),
		sim.WithLogBatchSize(cfg.Population.LogBatchSize),
		sim.WithRefreshInterval(cfg.Refresh.SnapshotInterval))

	sched, err := agents.NewScheduler(cfg.Agents.Script, agents.WithHistoryCapacity(cfg.Agents.HistorySize))
	if err != nil {
		return fmt.Errorf("agent scheduler: %w", err)
	}
	sched.OnTick(m.ObserveMessage)
	sched.OnTick(func(msg agents.Message) {
		if err := writer.WriteMessage(msg); err != nil {
			logger.Warn("message write failed", "err", err)
		}
	})

	serverOpts := []admin.Option{
		admin.WithConversation(sched),
		admin.WithMetrics(m),
		admin.WithLogger(logger),
	}
	if cfg.Admin.ActionsFile != "" {
		actions, err := os.ReadFile(cfg.Admin.ActionsFile)
		if err != nil {
			return fmt.Errorf("actions fixture: %w", err)
		}
		serverOpts = append(serverOpts, admin.WithActions(actions))
	}
	srv := admin.NewServer(simulator, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx, cfg.Admin.Addr) })
	g.Go(func() error { return simulator.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx, cfg.Refresh.MessageInterval) })

	start := time.Now()
	err = g.Wait()
	logger.Info("netenergy simulator stopped", "uptime", time.Since(start).Round(time.Second), "messages", sched.Counter())
	return err
}
