package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import chart samples from BTC price history",
	Long: `Build chart samples from the last year of BTC daily closes and store
them. Live CoinGecko data is used when reachable, otherwise the synthetic
generator.

Example:
  go run ./cmd/quiz seed --count 200`,
	RunE: runSeed,
}

var seedCount int

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of samples to import")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.migrate(cmd.Context()); err != nil {
		return err
	}

	start := time.Now()
	n, err := a.importer.Import(cmd.Context(), seedCount)
	if err != nil {
		return fmt.Errorf("import samples: %w", err)
	}
	total, err := a.store.Samples().Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Imported %d samples in %.2fs (pool: %d)", n, time.Since(start).Seconds(), total))
	return nil
}
