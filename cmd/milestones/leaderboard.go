package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/config"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/query"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
)

var (
	leaderboardMetric string
	leaderboardLimit  int
	leaderboardOffset int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank artists from the persisted snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(ctx)
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

		snap, err := gateway.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}

		store := tracker.NewMemStore()
		store.Restore(ctx, snap.Progress, snap.Milestones)

		page, err := query.New(store).Leaderboard(ctx, leaderboardMetric, leaderboardLimit, leaderboardOffset)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"Rank", "Artist", "Plays", "Rate", "Accel", "Albums"})
		for _, a := range page.Artists {
			if err := table.Append([]string{
				fmt.Sprintf("%d", a.Rank),
				a.Artist,
				fmt.Sprintf("%d", a.TotalPlays),
				fmt.Sprintf("%.2f", a.PlayRate),
				fmt.Sprintf("%.4f", a.Acceleration),
				fmt.Sprintf("%d", a.AlbumCount),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Printf("%d of %d artists (offset %d)\n", len(page.Artists), page.Total, page.Offset)
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardMetric, "metric", query.MetricTotalPlays,
		"ranking metric: totalPlays, playRate, acceleration, fastestToFifty, albumCount")
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 20, "rows per page")
	leaderboardCmd.Flags().IntVar(&leaderboardOffset, "offset", 0, "rows to skip")
	rootCmd.AddCommand(leaderboardCmd)
}
