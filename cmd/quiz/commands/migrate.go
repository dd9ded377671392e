package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or inspect the goose migrations embedded in the binary.

Subcommands:
  up       - apply all pending migrations
  version  - print the applied schema version

Example:
  go run ./cmd/quiz migrate up`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	}

	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE:  runMigrateVersion,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func openPostgres(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store != storePostgres {
		return nil, fmt.Errorf("%s requires STORE=%s", cmd.CommandPath(), storePostgres)
	}
	return newApp(cmd.Context(), cfg)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	a, err := openPostgres(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.migrate(cmd.Context()); err != nil {
		return err
	}
	version, err := a.db.MigrationVersion(cmd.Context())
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Schema at version %d", version))
	return nil
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	a, err := openPostgres(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	version, err := a.db.MigrationVersion(cmd.Context())
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	PrintKeyValue("version", fmt.Sprint(version), 8)
	return nil
}
