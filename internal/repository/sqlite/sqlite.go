package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and hands out repositories bound to it.
type DB struct {
	SqlDB *sql.DB
}

var _ domain.Database = (*DB)(nil)

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	// SQLite allows a single writer; one connection also keeps the
	// per-connection pragmas above in effect.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema steps the database has not seen yet.
func (d *DB) Migrate(ctx context.Context) error {
	steps, err := migrations.Load(migrations.FS)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	applied, err := migrations.Run(ctx, d.SqlDB, steps)
	for _, step := range applied {
		slog.Info("migration applied", "version", step.Version, "name", step.Name)
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		slog.Debug("schema up to date")
	}
	return nil
}

// SchemaVersion reports the highest applied migration.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	return migrations.Current(ctx, d.SqlDB)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

func (d *DB) Properties() domain.PropertyRepository {
	return &propertyRepo{db: d.SqlDB}
}

func (d *DB) Leads() domain.LeadRepository {
	return &leadRepo{db: d.SqlDB}
}

func (d *DB) FileStore() domain.FileStore {
	return &fileStore{db: d.SqlDB}
}
