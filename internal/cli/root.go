// Package cli defines the cobra command tree for the estate listings server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msomdec/estate-listings/internal/config"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/repository/gormstore"
	"github.com/msomdec/estate-listings/internal/repository/sqlite"
)

var (
	flagDBDriver string
	flagDBPath   string
	flagDBURL    string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "estate",
		Short:         "Property listings API server",
		Long:          "Serves the property listings REST API and manages its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagDBDriver, "db-driver", "", "database driver (sqlite|postgres), overrides DATABASE_DRIVER")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path, overrides DATABASE_PATH")
	root.PersistentFlags().StringVar(&flagDBURL, "db-url", "", "Postgres connection URL, overrides DATABASE_URL")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPromoteCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the environment and applies the database flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDBDriver != "" {
		cfg.DatabaseDriver = flagDBDriver
	}
	if flagDBPath != "" {
		cfg.DatabasePath = flagDBPath
	}
	if flagDBURL != "" {
		cfg.DatabaseURL = flagDBURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDatabase opens the configured backend. Callers close it.
func openDatabase(cfg *config.Config) (domain.Database, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
}

// closeDB closes the database, logging any error to stderr.
func closeDB(db domain.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
