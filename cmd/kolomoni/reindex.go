package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/app"
)

func newReindexCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the dictionary and write a snapshot",
		Long: "reindex reads every word and meaning, builds a fresh search index and writes it to\n" +
			"SEARCH_SNAPSHOT_PATH together with the change feed head it reflects. A server that\n" +
			"loads the snapshot replays only the entries after that head.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			if path != "" {
				cfg.Indexer.SnapshotPath = path
			}
			res, err := app.Reindex(cmd.Context(), log, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents through seq %d into %s\n", res.Documents, res.Head, res.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "output", "", "snapshot path (defaults to SEARCH_SNAPSHOT_PATH)")
	return cmd
}
