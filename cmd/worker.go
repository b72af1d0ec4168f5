package cmd

import (
	"dispatcher/internal/worker"
	"time"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	var (
		interval    time.Duration
		concurrency int
		runOnStart  bool
	)

	var command = &cobra.Command{
		Use:   "worker",
		Short: "Run dispatch cycles on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := loadConfig()
			if !cmd.Flags().Changed("run-on-start") {
				runOnStart = appCfg.Worker.RunOnStart
			}
			return worker.Run(appCfg, worker.Config{
				Interval:    interval,
				Concurrency: concurrency,
				RunOnStart:  runOnStart,
			})
		},
	}

	command.Flags().DurationVar(&interval, "interval", 0, "Cycle interval (default WORKER_INTERVAL)")
	command.Flags().IntVar(&concurrency, "concurrency", 0, "Users processed in parallel (default WORKER_CONCURRENCY)")
	command.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run a cycle immediately on start")

	return command
}
