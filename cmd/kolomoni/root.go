package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/app"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kolomoni",
		Short:         "Kolomoni - Slovene/English technical dictionary backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newCreateUserCmd())
	return cmd
}

// bootstrap builds the logger from LOG_MODE and loads the configuration.
func bootstrap() (*logger.Logger, app.Config, error) {
	mode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, app.Config{}, err
	}
	return log, cfg, nil
}
