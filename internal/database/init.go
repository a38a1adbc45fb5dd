package database

import (
	"context"
	"fmt"

	"github.com/yourusername/quantdesk/internal/config"
)

// ledger tables; IF NOT EXISTS keeps startup idempotent
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		initial_balance NUMERIC(18,4) NOT NULL,
		current_balance NUMERIC(18,4) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
		quantity NUMERIC(18,6) NOT NULL,
		price NUMERIC(18,4) NOT NULL,
		total_amount NUMERIC(18,4) NOT NULL,
		status TEXT NOT NULL DEFAULT 'executed',
		executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_user_time ON trades (user_id, executed_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_user_symbol ON trades (user_id, symbol)`,
	`CREATE TABLE IF NOT EXISTS positions (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		quantity NUMERIC(18,6) NOT NULL,
		avg_entry_price NUMERIC(18,4) NOT NULL,
		total_cost NUMERIC(18,4) NOT NULL,
		opened_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS signals (
		id UUID PRIMARY KEY,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('buy', 'sell')),
		strategy TEXT NOT NULL,
		price NUMERIC(18,4) NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_symbol_time ON signals (symbol, created_at DESC)`,
}

// Initialize creates a database connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the ledger schema statements in order
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
