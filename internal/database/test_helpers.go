package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		PoolSize: 5,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := NewMigrator(db, zap.NewNop()).Run(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
