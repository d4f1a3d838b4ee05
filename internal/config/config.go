// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// Population sizes the generated snapshots and log batches.
type Population struct {
	NodeCount    int    `yaml:"node_count"`
	LogBatchSize int    `yaml:"log_batch_size"`
	Seed         uint64 `yaml:"seed"`
}

// Refresh holds the consumer-chosen timer intervals.
type Refresh struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	MessageInterval  time.Duration `yaml:"message_interval"`
}

// Agents configures the message scheduler.
type Agents struct {
	ScriptFile  string            `yaml:"script_file"`
	HistorySize int               `yaml:"history_size"`
	Script      []agents.Template `yaml:"script"`
}

// Admin configures the HTTP API.
type Admin struct {
	Addr        string `yaml:"addr"`
	ActionsFile string `yaml:"actions_file"`
}

// Logging configures the slog handler.
type Logging struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Greptime holds the GreptimeDB sink settings.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
}

// Influx holds the InfluxDB v2 sink settings.
type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Sinks selects where refreshed snapshots and agent messages are written.
type Sinks struct {
	LogFile  string   `yaml:"log_file"`
	Greptime Greptime `yaml:"greptime"`
	Influx   Influx   `yaml:"influx"`
}

// OptimizerConfig is the root configuration.
type OptimizerConfig struct {
	Population Population `yaml:"population"`
	Refresh    Refresh    `yaml:"refresh"`
	Agents     Agents     `yaml:"agents"`
	Admin      Admin      `yaml:"admin"`
	Logging    Logging    `yaml:"logging"`
	Sinks      Sinks      `yaml:"sinks"`
}

// Default returns the reference configuration.
func Default() *OptimizerConfig {
	return &OptimizerConfig{
		Population: Population{
			NodeCount:    telemetry.DefaultNodeCount,
			LogBatchSize: telemetry.DefaultLogBatchSize,
		},
		Refresh: Refresh{
			SnapshotInterval: 30 * time.Second,
			MessageInterval:  agents.DefaultInterval,
		},
		Agents: Agents{
			HistorySize: agents.DefaultHistoryCapacity,
			Script:      append([]agents.Template(nil), agents.DefaultScript...),
		},
		Admin:   Admin{Addr: ":8080"},
		Logging: Logging{Format: "text", Level: "info"},
		Sinks:   Sinks{Greptime: Greptime{Database: "public"}},
	}
}

// Load reads a YAML config over the defaults, validates it against a CUE
// schema when cueSchemaPath is set, resolves the message script and checks
// the result. Relative script_file and actions_file paths are taken from the
// config file's directory.
func Load(configPath, cueSchemaPath string) (*OptimizerConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	cfg := Default()
	defaultScript := cfg.Agents.Script
	cfg.Agents.Script = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}
	dir := filepath.Dir(configPath)
	cfg.Agents.ScriptFile = resolvePath(dir, cfg.Agents.ScriptFile)
	cfg.Admin.ActionsFile = resolvePath(dir, cfg.Admin.ActionsFile)

	switch {
	case cfg.Agents.ScriptFile != "":
		script, err := agents.LoadScript(cfg.Agents.ScriptFile)
		if err != nil {
			return nil, err
		}
		cfg.Agents.Script = script
	case cfg.Agents.Script == nil:
		cfg.Agents.Script = defaultScript
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate reports configuration faults that must stop startup.
func (c *OptimizerConfig) Validate() error {
	var errs []error
	if c.Population.NodeCount <= 0 {
		errs = append(errs, fmt.Errorf("population.node_count must be positive, got %d", c.Population.NodeCount))
	}
	if c.Population.LogBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("population.log_batch_size must be positive, got %d", c.Population.LogBatchSize))
	}
	if c.Refresh.SnapshotInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh.snapshot_interval must be positive, got %s", c.Refresh.SnapshotInterval))
	}
	if c.Refresh.MessageInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh.message_interval must be positive, got %s", c.Refresh.MessageInterval))
	}
	if c.Agents.HistorySize <= 0 {
		errs = append(errs, fmt.Errorf("agents.history_size must be positive, got %d", c.Agents.HistorySize))
	}
	if err := agents.ValidateScript(c.Agents.Script); err != nil {
		errs = append(errs, fmt.Errorf("agents.script: %w", err))
	}
	return errors.Join(errs...)
}
