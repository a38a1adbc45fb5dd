package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/quantdesk/internal/database"
	"github.com/yourusername/quantdesk/internal/models"
)

// PostgresPositionRepository implements PositionRepository for PostgreSQL
type PostgresPositionRepository struct {
	db *database.DB
}

// NewPostgresPositionRepository creates a new position repository
func NewPostgresPositionRepository(db *database.DB) PositionRepository {
	return &PostgresPositionRepository{db: db}
}

// Upsert inserts a position or replaces the holding for (user, symbol)
func (r *PostgresPositionRepository) Upsert(ctx context.Context, position *models.Position) error {
	query := `
		INSERT INTO positions (id, user_id, symbol, quantity, avg_entry_price, total_cost, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_entry_price = EXCLUDED.avg_entry_price,
			total_cost = EXCLUDED.total_cost,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		position.ID, position.UserID, position.Symbol, position.Quantity,
		position.AvgEntryPrice, position.TotalCost, position.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

// GetByUserAndSymbol retrieves one holding
func (r *PostgresPositionRepository) GetByUserAndSymbol(ctx context.Context, userID, symbol string) (*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_entry_price, total_cost, opened_at, updated_at
		FROM positions WHERE user_id = $1 AND symbol = $2
	`

	position := &models.Position{}
	err := r.db.QueryRow(ctx, query, userID, symbol).Scan(
		&position.ID, &position.UserID, &position.Symbol, &position.Quantity,
		&position.AvgEntryPrice, &position.TotalCost, &position.OpenedAt, &position.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return position, nil
}

// GetByUserID retrieves all holdings for a user
func (r *PostgresPositionRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_entry_price, total_cost, opened_at, updated_at
		FROM positions
		WHERE user_id = $1
		ORDER BY symbol ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position := &models.Position{}
		err := rows.Scan(
			&position.ID, &position.UserID, &position.Symbol, &position.Quantity,
			&position.AvgEntryPrice, &position.TotalCost, &position.OpenedAt, &position.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, position)
	}
	return positions, rows.Err()
}

// Delete removes a fully closed holding
func (r *PostgresPositionRepository) Delete(ctx context.Context, userID, symbol string) error {
	commandTag, err := r.db.Exec(ctx, `DELETE FROM positions WHERE user_id = $1 AND symbol = $2`, userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes all holdings for a user, used by account reset
func (r *PostgresPositionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM positions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	return nil
}
