package migrations

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

// FS holds the schema steps, one file per version named NNNN_description.sql.
//
//go:embed *.sql
var FS embed.FS

// Migration is a single versioned schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Load reads every .sql file in fsys and returns the steps ordered by
// version. Misnamed files and repeated versions are errors.
func Load(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	steps := make([]Migration, 0, len(files))
	seen := make(map[int]string, len(files))
	for _, file := range files {
		version, name, err := parseFilename(file)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("version %d used by both %s and %s", version, prev, file)
		}
		seen[version] = file

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		steps = append(steps, Migration{Version: version, Name: name, SQL: string(content)})
	}

	slices.SortFunc(steps, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return steps, nil
}

func parseFilename(file string) (int, string, error) {
	prefix, name, ok := strings.Cut(strings.TrimSuffix(path.Base(file), ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %s: want NNNN_description.sql", file)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("migration %s: version must be a positive number", file)
	}
	return version, name, nil
}

// Run applies every step newer than the recorded schema version, each in its
// own transaction, and returns the steps it applied.
func Run(ctx context.Context, db *sql.DB, steps []Migration) ([]Migration, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	current, err := Current(ctx, db)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		if err := apply(ctx, db, step); err != nil {
			return applied, fmt.Errorf("apply %04d_%s: %w", step.Version, step.Name, err)
		}
		applied = append(applied, step)
	}
	return applied, nil
}

// Current returns the highest applied version, or 0 for an empty database.
func Current(ctx context.Context, db *sql.DB) (int, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func apply(ctx context.Context, db *sql.DB, step Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return fmt.Errorf("execute sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", step.Version, step.Name,
	); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
