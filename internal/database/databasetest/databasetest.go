// Package databasetest opens throwaway SQLite databases migrated with the
// production migration sets.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/database"
)

// Open returns a migrated database living in the test's temp dir.
func Open(t testing.TB, set string) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront_test.db")

	db, err := database.Open(ctx, config.DBConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.Migrate(ctx, db, set); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
