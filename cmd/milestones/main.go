// Command milestones is the operator CLI: batch rebuilds from listening
// history and offline reads over the persisted snapshot.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Operate the artist milestone tracker",
	Long: `Rebuild milestone state from a listening history database and
inspect the persisted results without a running server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.WithWriter(os.Stderr))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
