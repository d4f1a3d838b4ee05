package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netenergy-sim/internal/config"
	"netenergy-sim/internal/logging"
)

const (
	defaultConfigPath = "config/netenergy.yaml"
	defaultSchemaPath = "schemas/netenergy.cue"
	envPrefix         = "NETENERGY"
)

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "netenergy-sim",
		Short:         "Network energy optimization simulator",
		Long:          "netenergy-sim generates synthetic network-node telemetry, optimization logs and scripted agent conversations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", defaultConfigPath, "Path to configuration YAML")
	pf.String("schema", defaultSchemaPath, "Path to CUE schema file (empty to skip validation)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.Int("nodes", 0, "Number of nodes per snapshot")
	pf.Int("log-batch", 0, "Number of entries per data log batch")
	pf.Uint64("seed", 0, "Random seed (0 seeds from the clock)")
	_ = v.BindPFlags(pf)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newServeCmd(v), newSnapshotCmd(v), newLogsCmd(v), newReplayCmd(v), newDashboardCmd(v))
	return root
}

// loadConfig reads the YAML config named by --config and applies flag and
// environment overrides. A missing file at the default path falls back to
// the built-in defaults.
func loadConfig(v *viper.Viper) (*config.OptimizerConfig, error) {
	path := v.GetString("config")
	cfg, err := config.Load(path, v.GetString("schema"))
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !v.IsSet("config"):
		cfg = config.Default()
	default:
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	applyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *config.OptimizerConfig) {
	if v.IsSet("nodes") {
		cfg.Population.NodeCount = v.GetInt("nodes")
	}
	if v.IsSet("log-batch") {
		cfg.Population.LogBatchSize = v.GetInt("log-batch")
	}
	if v.IsSet("seed") {
		cfg.Population.Seed = v.GetUint64("seed")
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.Logging.Format = v.GetString("log-format")
	}
	if v.IsSet("addr") {
		cfg.Admin.Addr = v.GetString("addr")
	}
	if v.IsSet("actions-file") {
		cfg.Admin.ActionsFile = v.GetString("actions-file")
	}
	if v.IsSet("refresh") {
		cfg.Refresh.SnapshotInterval = v.GetDuration("refresh")
	}
	if v.IsSet("message-interval") {
		cfg.Refresh.MessageInterval = v.GetDuration("message-interval")
	}
	if v.IsSet("log-file") {
		cfg.Sinks.LogFile = v.GetString("log-file")
	}
	if v.IsSet("greptime-endpoint") {
		cfg.Sinks.Greptime.Endpoint = v.GetString("greptime-endpoint")
	}
	if v.IsSet("greptime-database") {
		cfg.Sinks.Greptime.Database = v.GetString("greptime-database")
	}
	if v.IsSet("influx-url") {
		cfg.Sinks.Influx.URL = v.GetString("influx-url")
	}
	if v.IsSet("influx-token") {
		cfg.Sinks.Influx.Token = v.GetString("influx-token")
	}
	if v.IsSet("influx-org") {
		cfg.Sinks.Influx.Org = v.GetString("influx-org")
	}
	if v.IsSet("influx-bucket") {
		cfg.Sinks.Influx.Bucket = v.GetString("influx-bucket")
	}
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(w io.Writer, cfg *config.OptimizerConfig) *slog.Logger {
	l := logging.New(w, logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	slog.SetDefault(l)
	return l
}
