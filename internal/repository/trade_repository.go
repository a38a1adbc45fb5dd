package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/quantdesk/internal/database"
	"github.com/yourusername/quantdesk/internal/models"
)

// PostgresTradeRepository implements TradeRepository for PostgreSQL
type PostgresTradeRepository struct {
	db *database.DB
}

// NewPostgresTradeRepository creates a new trade repository
func NewPostgresTradeRepository(db *database.DB) TradeRepository {
	return &PostgresTradeRepository{db: db}
}

const tradeColumns = `id, user_id, symbol, side, quantity, price, total_amount, status, executed_at`

// Create inserts a new trade
func (r *PostgresTradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (id, user_id, symbol, side, quantity, price, total_amount, status, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		trade.ID, trade.UserID, trade.Symbol, trade.Side, trade.Quantity,
		trade.Price, trade.TotalAmount, trade.Status, trade.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by ID
func (r *PostgresTradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade := &models.Trade{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&trade.ID, &trade.UserID, &trade.Symbol, &trade.Side, &trade.Quantity,
		&trade.Price, &trade.TotalAmount, &trade.Status, &trade.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

// GetByUserID retrieves the most recent trades for a user
func (r *PostgresTradeRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByUserAndSymbol retrieves recent trades for one symbol
func (r *PostgresTradeRepository) GetByUserAndSymbol(ctx context.Context, userID, symbol string, limit int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND symbol = $2
		ORDER BY executed_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// CountByUserID counts all trades for a user
func (r *PostgresTradeRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// DeleteByUserID removes all trades for a user, used by account reset
func (r *PostgresTradeRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM trades WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete trades: %w", err)
	}
	return nil
}

func scanTrades(rows pgx.Rows) ([]*models.Trade, error) {
	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID, &trade.UserID, &trade.Symbol, &trade.Side, &trade.Quantity,
			&trade.Price, &trade.TotalAmount, &trade.Status, &trade.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
