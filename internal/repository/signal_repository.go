package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/quantdesk/internal/database"
	"github.com/yourusername/quantdesk/internal/models"
)

// PostgresSignalRepository implements SignalRepository for PostgreSQL
type PostgresSignalRepository struct {
	db *database.DB
}

// NewPostgresSignalRepository creates a new signal repository
func NewPostgresSignalRepository(db *database.DB) SignalRepository {
	return &PostgresSignalRepository{db: db}
}

// Insert persists a detected signal
func (r *PostgresSignalRepository) Insert(ctx context.Context, signal *models.StoredSignal) error {
	query := `
		INSERT INTO signals (id, symbol, direction, strategy, price, payload, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		signal.ID, signal.Symbol, signal.Direction, signal.Strategy,
		signal.Price, signal.Payload, signal.Active, signal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

// GetBySymbol retrieves the most recent signals for one symbol
func (r *PostgresSignalRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.StoredSignal, error) {
	query := `
		SELECT id, symbol, direction, strategy, price, payload, active, created_at
		FROM signals
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals by symbol: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetRecent retrieves active signals detected since an instant
func (r *PostgresSignalRepository) GetRecent(ctx context.Context, since time.Time, limit int) ([]*models.StoredSignal, error) {
	query := `
		SELECT id, symbol, direction, strategy, price, payload, active, created_at
		FROM signals
		WHERE active = true AND created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// Deactivate marks a signal as no longer active
func (r *PostgresSignalRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	commandTag, err := r.db.Exec(ctx, `UPDATE signals SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate signal: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanSignals(rows pgx.Rows) ([]*models.StoredSignal, error) {
	var signals []*models.StoredSignal
	for rows.Next() {
		signal := &models.StoredSignal{}
		err := rows.Scan(
			&signal.ID, &signal.Symbol, &signal.Direction, &signal.Strategy,
			&signal.Price, &signal.Payload, &signal.Active, &signal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}
	return signals, rows.Err()
}
