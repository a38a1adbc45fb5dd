package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderSide represents the side of a paper trade
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// TradeStatus represents the lifecycle state of a paper trade
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusExecuted  TradeStatus = "executed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// Account tracks a user's virtual cash balance
type Account struct {
	UserID         string    `db:"user_id" json:"user_id" validate:"required"`
	InitialBalance float64   `db:"initial_balance" json:"initial_balance" validate:"required,gt=0"`
	CurrentBalance float64   `db:"current_balance" json:"current_balance" validate:"gte=0"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Trade represents a single executed paper trade
type Trade struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	UserID      string      `db:"user_id" json:"user_id" validate:"required"`
	Symbol      string      `db:"symbol" json:"symbol" validate:"required"`
	Side        OrderSide   `db:"side" json:"side" validate:"required,oneof=buy sell"`
	Quantity    float64     `db:"quantity" json:"quantity" validate:"required,gt=0"`
	Price       float64     `db:"price" json:"price" validate:"required,gt=0"`
	TotalAmount float64     `db:"total_amount" json:"total_amount"`
	Status      TradeStatus `db:"status" json:"status"`
	ExecutedAt  time.Time   `db:"executed_at" json:"executed_at"`
}

// Position represents a current holding in the virtual portfolio
type Position struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Symbol        string    `db:"symbol" json:"symbol"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	AvgEntryPrice float64   `db:"avg_entry_price" json:"avg_entry_price"`
	TotalCost     float64   `db:"total_cost" json:"total_cost"`
	OpenedAt      time.Time `db:"opened_at" json:"opened_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PositionValue is a position marked to a live price
type PositionValue struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	AvgEntryPrice    float64 `json:"avg_entry_price"`
	CurrentPrice     float64 `json:"current_price"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	TotalValue       float64 `json:"total_value"`
}

// PortfolioSnapshot is a full view of a virtual account with P&L
type PortfolioSnapshot struct {
	UserID        string          `json:"user_id"`
	CashBalance   float64         `json:"cash_balance"`
	TotalInvested float64         `json:"total_invested"`
	TotalValue    float64         `json:"total_value"`
	TotalPnL      float64         `json:"total_pnl"`
	TotalPnLPct   float64         `json:"total_pnl_pct"`
	Positions     []PositionValue `json:"positions"`
	TradesCount   int             `json:"trades_count"`
}

// StoredSignal is a persisted signal event row
type StoredSignal struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Symbol    string    `db:"symbol" json:"symbol"`
	Direction string    `db:"direction" json:"direction"`
	Strategy  string    `db:"strategy" json:"strategy"`
	Price     float64   `db:"price" json:"price"`
	Payload   string    `db:"payload" json:"payload"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
