package main

import (
	"github.com/spf13/cobra"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/app"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables, indexes and the role catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			if err := app.MigrateDatabase(log, cfg); err != nil {
				return err
			}
			log.Info("Migration complete", "driver", cfg.DBDriver)
			return nil
		},
	}
}
