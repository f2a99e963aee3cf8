package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres via GORM) owns its own schema
// strategy, so the whole persistence layer is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	Users() UserRepository
	Properties() PropertyRepository
	Leads() LeadRepository
	FileStore() FileStore
}
