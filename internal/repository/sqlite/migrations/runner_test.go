package migrations_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/msomdec/estate-listings/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func loadEmbedded(t *testing.T) []migrations.Migration {
	t.Helper()
	steps, err := migrations.Load(migrations.FS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(steps) == 0 {
		t.Fatal("expected embedded migrations")
	}
	return steps
}

func TestRunMigrations(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	steps := loadEmbedded(t)

	applied, err := migrations.Run(ctx, db, steps)
	if err != nil {
		t.Fatalf("first migration run: %v", err)
	}
	if len(applied) != len(steps) {
		t.Fatalf("expected %d applied, got %d", len(steps), len(applied))
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		"u1", "test@example.com", "Test User", "hash123", "buyer",
	)
	if err != nil {
		t.Fatalf("insert into users: %v", err)
	}

	version, err := migrations.Current(ctx, db)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if version != steps[len(steps)-1].Version {
		t.Fatalf("expected schema version %d, got %d", steps[len(steps)-1].Version, version)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	steps := loadEmbedded(t)

	if _, err := migrations.Run(ctx, db, steps); err != nil {
		t.Fatalf("first run: %v", err)
	}
	applied, err := migrations.Run(ctx, db, steps)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied on second run, got %d", len(applied))
	}
}

func TestRunAppliesOnlyNewerSteps(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	first := []migrations.Migration{{Version: 1, Name: "a", SQL: "CREATE TABLE a (id INTEGER)"}}
	if _, err := migrations.Run(ctx, db, first); err != nil {
		t.Fatalf("Run: %v", err)
	}

	both := append(first, migrations.Migration{Version: 2, Name: "b", SQL: "CREATE TABLE b (id INTEGER)"})
	applied, err := migrations.Run(ctx, db, both)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) != 1 || applied[0].Name != "b" {
		t.Fatalf("expected only step 2, got %+v", applied)
	}
}

func TestRunStopsAtFailingStep(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	steps := []migrations.Migration{
		{Version: 1, Name: "ok", SQL: "CREATE TABLE ok (id INTEGER)"},
		{Version: 2, Name: "broken", SQL: "CREATE TABLE"},
	}
	applied, err := migrations.Run(ctx, db, steps)
	if err == nil || !strings.Contains(err.Error(), "0002_broken") {
		t.Fatalf("expected error naming the failing step, got %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("expected the first step applied, got %d", len(applied))
	}
	if version, _ := migrations.Current(ctx, db); version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestLoad(t *testing.T) {
	steps, err := migrations.Load(fstest.MapFS{
		"0010_later.sql": {Data: []byte("SELECT 10")},
		"0002_early.sql": {Data: []byte("SELECT 2")},
		"README.md":      {Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(steps) != 2 || steps[0].Version != 2 || steps[1].Version != 10 || steps[1].Name != "later" {
		t.Fatalf("unexpected steps %+v", steps)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no version", fstest.MapFS{"init.sql": {}}},
		{"zero version", fstest.MapFS{"0000_init.sql": {}}},
		{"no description", fstest.MapFS{"0001_.sql": {}}},
		{"repeated version", fstest.MapFS{"0001_a.sql": {}, "001_b.sql": {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := migrations.Load(tt.fsys); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRoleConstraint(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if _, err := migrations.Run(ctx, db, loadEmbedded(t)); err != nil {
		t.Fatalf("run: %v", err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		"u1", "x@example.com", "X", "hash", "superuser",
	)
	if err == nil {
		t.Fatal("expected CHECK constraint to reject unknown role")
	}
}
