package cmd

import (
	"context"
	"dispatcher/internal/worker"
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single dispatch cycle and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := loadConfig()
			ctx := log.Logger.WithContext(context.Background())

			runner, _, closeFn, err := worker.NewRunner(ctx, appCfg)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := runner.RunCycle(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
