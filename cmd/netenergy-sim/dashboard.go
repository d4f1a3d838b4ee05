package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netenergy-sim/internal/dashboard"
	"netenergy-sim/internal/sim"
)

func newDashboardCmd(v *viper.Viper) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render the Grafana dashboard for the GreptimeDB tables",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			paths, err := dashboard.Render(outDir, dashboard.Params{
				DatasourceUID: v.GetString("datasource-uid"),
				NodeTable:     sim.NodeTable,
				SummaryTable:  sim.SummaryTable,
				MessageTable:  sim.MessageTable,
				Refresh:       cfg.Refresh.SnapshotInterval.String(),
			})
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "build", "Output directory")
	cmd.Flags().String("datasource-uid", "", "Grafana datasource UID of the GreptimeDB MySQL endpoint")
	_ = v.BindEnv("datasource-uid", envPrefix+"_DATASOURCE_UID", "GREPTIMEDB_DATASOURCE_UID")
	return cmd
}
