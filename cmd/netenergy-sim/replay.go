package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netenergy-sim/internal/logging"
	"netenergy-sim/internal/sim"
)

func newReplayCmd(v *viper.Viper) *cobra.Command {
	var (
		input     string
		speed     float64
		printOnly bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a snapshot log file",
		Long:  "replay feeds snapshots from a JSONL log back into the configured sinks or STDOUT.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return fmt.Errorf("input file required")
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			cfg.Sinks.LogFile = ""
			logger := newLogger(os.Stderr, cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.NewContext(ctx, logger)

			writer, cleanup, err := newWriters(ctx, cfg, writerOptions{printOnly: printOnly})
			if err != nil {
				return err
			}
			defer cleanup()
			n, err := sim.ReplayLogFile(ctx, input, writer, speed)
			logger.Info("replay finished", "input", input, "snapshots", n)
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Path to snapshot log file")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Playback speed multiplier (0 disables delays)")
	cmd.Flags().BoolVar(&printOnly, "print-only", false, "Print snapshots to STDOUT instead of writing to databases")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
