package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	storeFlag string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Trading Quiz - chart prediction game backend",
	Long: `Trading Quiz Unified CLI

Players guess whether a hidden BTC chart went up or down and climb an
Elo-style leaderboard.

Usage:
  go run ./cmd/quiz [command]

Examples:
  go run ./cmd/quiz api
  go run ./cmd/quiz migrate up
  go run ./cmd/quiz seed --count 200
  go run ./cmd/quiz leaderboard --limit 10
  go run ./cmd/quiz --store memory api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "storage backend override (postgres|memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
