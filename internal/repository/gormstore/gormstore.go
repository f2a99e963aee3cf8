// Package gormstore implements the persistence layer on GORM, targeting
// PostgreSQL in production. The SQLite dialector is used by tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/estate-listings/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a GORM connection and hands out repositories bound to it.
type DB struct {
	Gorm *gorm.DB
}

var _ domain.Database = (*DB)(nil)

// Open connects to PostgreSQL using the given DSN.
func Open(dsn string) (*DB, error) {
	return New(postgres.Open(dsn))
}

// New opens a database through any GORM dialector.
func New(dialector gorm.Dialector) (*DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &DB{Gorm: db}, nil
}

// Migrate creates or updates tables for all models.
func (d *DB) Migrate(ctx context.Context) error {
	// Tables holding the referenced side go first.
	err := d.Gorm.WithContext(ctx).AutoMigrate(
		&userModel{},
		&propertyModel{},
		&leadModel{},
		&fileBlobModel{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) Users() domain.UserRepository {
	return &userRepo{db: d.Gorm}
}

func (d *DB) Properties() domain.PropertyRepository {
	return &propertyRepo{db: d.Gorm}
}

func (d *DB) Leads() domain.LeadRepository {
	return &leadRepo{db: d.Gorm}
}

func (d *DB) FileStore() domain.FileStore {
	return &fileStore{db: d.Gorm}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
