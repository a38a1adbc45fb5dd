package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/quantdesk/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Account  AccountRepository
	Trade    TradeRepository
	Position PositionRepository
	Signal   SignalRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Account:  NewPostgresAccountRepository(db),
		Trade:    NewPostgresTradeRepository(db),
		Position: NewPostgresPositionRepository(db),
		Signal:   NewPostgresSignalRepository(db),
	}, nil
}

// isUniqueViolation reports whether an error is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
