package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// schemaVersioner is implemented by stores with numbered migrations.
// GORM's AutoMigrate has no version to report.
type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Create or upgrade the schema of the configured database and exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "migrations applied (%s)\n", cfg.DatabaseDriver)
			if v, ok := db.(schemaVersioner); ok {
				version, err := v.SchemaVersion(cmd.Context())
				if err != nil {
					return fmt.Errorf("read schema version: %w", err)
				}
				fmt.Fprintf(out, "schema version %d\n", version)
			}
			return nil
		},
	}
}
