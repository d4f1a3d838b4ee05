package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netenergy-sim/internal/telemetry"
)

func newSnapshotCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print one fleet snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			gen := telemetry.NewGenerator(telemetry.NewSource(cfg.Population.Seed),
				telemetry.WithPopulation(cfg.Population.NodeCount))
			snap, err := gen.Snapshot(cfg.Population.NodeCount)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Nodes   []telemetry.NodeReading `json:"nodes"`
				Summary telemetry.FleetSummary  `json:"summary"`
			}{snap.Nodes, snap.Summary})
		},
	}
}
