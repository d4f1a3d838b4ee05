package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netenergy-sim/internal/telemetry"
)

func newLogsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Print one batch of optimization data logs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			gen := telemetry.NewGenerator(telemetry.NewSource(cfg.Population.Seed),
				telemetry.WithPopulation(cfg.Population.NodeCount))
			logs, err := gen.LogBatch(cfg.Population.LogBatchSize)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Logs []telemetry.DataLogEntry `json:"logs"`
			}{logs})
		},
	}
}
