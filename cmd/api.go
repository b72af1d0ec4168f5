package cmd

import (
	"context"
	"dispatcher/internal/api"
	"dispatcher/internal/ports"
	"dispatcher/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func apiCmd() *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "api",
		Short: "Start admin API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := loadConfig()
			ctx := log.Logger.WithContext(context.Background())

			runner, cli, closeFn, err := worker.NewRunner(ctx, appCfg)
			if err != nil {
				return err
			}
			defer closeFn()

			var (
				reports ports.ReportStore
				health  api.HealthFunc
			)
			if cli != nil {
				reports = cli
				health = cli.Connect
			}

			server := api.NewServer(runner, reports, health)
			server.Run(port)
			return nil
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	return command
}
