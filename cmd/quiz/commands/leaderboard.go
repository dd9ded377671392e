package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// leaderboardCmd represents the leaderboard command
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the top players",
	Long: `Print the leaderboard straight from the store, bypassing the cache.

Example:
  go run ./cmd/quiz leaderboard --limit 20`,
	RunE: runLeaderboard,
}

var leaderboardLimit int

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 10, "number of players to show")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.board.Invalidate(cmd.Context()); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate leaderboard cache")
	}
	entries, err := a.board.Top(cmd.Context(), leaderboardLimit)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	if len(entries) == 0 {
		PrintInfo("No players yet")
		return nil
	}

	widths := []int{6, 24, 10}
	PrintTableHeader([]string{"Rank", "Username", "Rating"}, widths)
	for _, e := range entries {
		PrintTableRow([]string{
			strconv.Itoa(e.Rank),
			e.Username,
			strconv.FormatFloat(e.Rating, 'f', 0, 64),
		}, widths)
	}
	return nil
}
