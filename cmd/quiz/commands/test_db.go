package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradingquiz/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Check the PostgreSQL connection",
	Long: `Connect to the database and print health and pool statistics.

Example:
  go run ./cmd/quiz test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	PrintKeyValue("env", cfg.Env, 10)
	PrintKeyValue("database", maskDSN(cfg.Database.DSN()), 10)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	PrintSeparator()
	PrintKeyValue("latency", health.Latency.String(), 14)
	PrintKeyValue("schema", fmt.Sprint(health.SchemaVersion), 14)
	PrintKeyValue("max conns", fmt.Sprint(health.MaxConns), 14)
	PrintKeyValue("total conns", fmt.Sprint(health.TotalConns), 14)
	PrintKeyValue("idle conns", fmt.Sprint(health.IdleConns), 14)
	PrintSeparator()

	PrintSuccess("Database reachable")
	return nil
}

// maskDSN hides the password in a connection URL.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
