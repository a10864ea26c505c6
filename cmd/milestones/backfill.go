package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/history"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/batch"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/config"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
)

var (
	backfillHistory string
	backfillOut     string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild milestone state from the listening history database",
	Long: `Replays the full history through the milestone pipeline, replacing
any previously persisted state. The rebuild is deterministic: the same
history always produces the same milestones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}
		dbPath := backfillHistory
		if dbPath == "" {
			dbPath = cfg.HistoryDBPath
		}
		if dbPath == "" {
			return fmt.Errorf("no history database: pass --history or set history_db_path")
		}
		if backfillOut != "" {
			cfg.DataDir = backfillOut
		}

		src, err := history.Open(dbPath)
		if err != nil {
			return err
		}
		defer src.Close()

		events, err := src.Events(ctx)
		if err != nil {
			return err
		}

		gateway, err := persistence.NewGateway(ctx, persistence.FactoryConfig{
			Backend:        cfg.PersistenceBackend,
			DataDir:        cfg.DataDir,
			RedisAddr:      cfg.RedisAddr,
			RedisKeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return err
		}
		defer gateway.Close()

		store := tracker.NewMemStore()
		norm := normalize.New(normalize.WithAliases(cfg.ArtistAliases))
		summary, err := batch.New(store, norm, gateway).Process(ctx, events)
		if err != nil {
			return err
		}
		return printSummary(summary)
	},
}

func printSummary(s batch.Summary) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Tracks", "Skipped", "Artists", "Milestones", "Seconds"})
	if err := table.Append([]string{
		fmt.Sprintf("%d", s.TracksProcessed),
		fmt.Sprintf("%d", s.EventsSkipped),
		fmt.Sprintf("%d", s.UniqueArtists),
		fmt.Sprintf("%d", s.MilestonesRecorded),
		fmt.Sprintf("%.2f", s.ProcessingTimeSeconds),
	}); err != nil {
		return err
	}
	return table.Render()
}

func init() {
	backfillCmd.Flags().StringVar(&backfillHistory, "history", "", "path to the listening history SQLite database")
	backfillCmd.Flags().StringVar(&backfillOut, "out", "", "data directory for the rebuilt snapshot (file backend)")
	rootCmd.AddCommand(backfillCmd)
}
