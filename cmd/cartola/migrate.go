package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/config"
	"github.com/Veraticus/cartola/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the rule database schema to the latest version.

Only the sqlite store has a schema; the file store needs no migration.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if settings.StoreBackend != config.BackendSQLite {
		printf(w, "%s\n", cli.FormatInfo(fmt.Sprintf("Store backend %q has no schema", settings.StoreBackend)))
		return nil
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if status {
		printf(w, "%s\n", cli.FormatTitle("Database migration status"))
		printf(w, "  Database: %s\n  Current:  %d\n  Latest:   %d\n", settings.DatabasePath, current, storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			printf(w, "%s\n", cli.FormatWarning("Migrations pending"))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", settings.DatabasePath, "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	printf(w, "%s\n", cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}
