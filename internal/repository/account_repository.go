package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/quantdesk/internal/database"
	"github.com/yourusername/quantdesk/internal/models"
)

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *database.DB
}

// NewPostgresAccountRepository creates a new account repository
func NewPostgresAccountRepository(db *database.DB) AccountRepository {
	return &PostgresAccountRepository{db: db}
}

// Create inserts a new account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, initial_balance, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`

	_, err := r.db.Exec(ctx, query, account.UserID, account.InitialBalance, account.CurrentBalance)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUserID retrieves an account by user ID
func (r *PostgresAccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	query := `
		SELECT user_id, initial_balance, current_balance, created_at, updated_at
		FROM accounts WHERE user_id = $1
	`

	account := &models.Account{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&account.UserID, &account.InitialBalance, &account.CurrentBalance,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// UpdateBalance sets the current cash balance for an account
func (r *PostgresAccountRepository) UpdateBalance(ctx context.Context, userID string, newBalance float64) error {
	query := `UPDATE accounts SET current_balance = $2, updated_at = NOW() WHERE user_id = $1`

	commandTag, err := r.db.Exec(ctx, query, userID, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reset restores an account to a fresh balance
func (r *PostgresAccountRepository) Reset(ctx context.Context, userID string, balance float64) error {
	query := `
		UPDATE accounts SET initial_balance = $2, current_balance = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	commandTag, err := r.db.Exec(ctx, query, userID, balance)
	if err != nil {
		return fmt.Errorf("failed to reset account: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
