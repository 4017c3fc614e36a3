// Package fetch implements the one-shot ingestion command.
package fetch

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nordnytt/aggregator/cmd/common"
	"github.com/nordnytt/aggregator/internal/pipeline"
	"github.com/nordnytt/aggregator/internal/store"
)

// Command creates the fetch command.
func Command() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one ingestion pass over all allowed domains",
		Long: `Fetch feeds from every allowed domain once, store accepted articles,
and print the run counters. With --dry-run nothing is written to the
database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			var articles store.Store
			if dryRun {
				articles = store.NewMemoryStore()
			} else {
				db, dbErr := common.OpenDatabase(cmd.Context(), &deps.Config.Database)
				if dbErr != nil {
					return fmt.Errorf("failed to open database: %w", dbErr)
				}
				defer db.Close()

				articles = store.NewPostgresStore(db)
			}

			stats, err := common.BuildPipeline(deps, articles).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("ingestion run failed: %w", err)
			}

			renderStats(stats)

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run without writing to the database")

	return cmd
}

// renderStats prints the run counters as a table.
func renderStats(stats pipeline.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Seen", "Saved", "Skipped (blocked)", "Duplicates"})
	t.AppendRow(table.Row{stats.Seen, stats.Saved, stats.SkippedBlocked, stats.Dupes})

	t.Render()
}
