package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/quantdesk/internal/config"
)

// SetupTestDB connects to the database named by QUANTDESK_TEST_CONFIG and
// ensures the schema. Tests that need a live database skip when the
// variable is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv("QUANTDESK_TEST_CONFIG")
	if path == "" {
		t.Skip("QUANTDESK_TEST_CONFIG not set, skipping database test")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to ensure schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
