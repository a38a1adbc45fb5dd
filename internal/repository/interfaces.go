package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/quantdesk/internal/models"
)

// AccountRepository defines the interface for virtual account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	UpdateBalance(ctx context.Context, userID string, newBalance float64) error
	Reset(ctx context.Context, userID string, balance float64) error
}

// TradeRepository defines the interface for paper trade data access
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	GetByUserID(ctx context.Context, userID string, limit int) ([]*models.Trade, error)
	GetByUserAndSymbol(ctx context.Context, userID, symbol string, limit int) ([]*models.Trade, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// PositionRepository defines the interface for open position data access
type PositionRepository interface {
	Upsert(ctx context.Context, position *models.Position) error
	GetByUserAndSymbol(ctx context.Context, userID, symbol string) (*models.Position, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Position, error)
	Delete(ctx context.Context, userID, symbol string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// SignalRepository defines the interface for persisted signal data access
type SignalRepository interface {
	Insert(ctx context.Context, signal *models.StoredSignal) error
	GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.StoredSignal, error)
	GetRecent(ctx context.Context, since time.Time, limit int) ([]*models.StoredSignal, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
