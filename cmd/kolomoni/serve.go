package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the search indexer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := app.New(log, cfg)
			if err != nil {
				log.Error("Failed to init app", "error", err)
				log.Sync()
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("Starting server", "addr", cfg.HTTPAddr, "version", version)
			if err := a.Run(ctx); err != nil {
				log.Error("Server exited", "error", err)
				return err
			}
			log.Info("Server stopped")
			return nil
		},
	}
}
