package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/models"
	"github.com/yourusername/quantdesk/internal/repository"
)

// DefaultInitialBalance is the cash a fresh paper account starts with
const DefaultInitialBalance = 1_000_000.0

// PriceSource supplies live prices for marking positions
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// Service executes paper trades against the persisted ledger. All money
// arithmetic runs through decimals; floats appear only at the model
// boundary.
type Service struct {
	accounts  repository.AccountRepository
	trades    repository.TradeRepository
	positions repository.PositionRepository
	signals   repository.SignalRepository
	prices    PriceSource
	log       *logrus.Logger
}

// NewService wires the ledger service
func NewService(repos *repository.Repositories, prices PriceSource, log *logrus.Logger) *Service {
	return &Service{
		accounts:  repos.Account,
		trades:    repos.Trade,
		positions: repos.Position,
		signals:   repos.Signal,
		prices:    prices,
		log:       log,
	}
}

// GetAccount returns the user's account or models.ErrNotFound
func (s *Service) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	return s.accounts.GetByUserID(ctx, userID)
}

// GetOrCreateAccount returns the user's account, creating it with the
// default balance on first use
func (s *Service) GetOrCreateAccount(ctx context.Context, userID string, initialBalance float64) (*models.Account, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if initialBalance <= 0 {
		initialBalance = DefaultInitialBalance
	}
	account = &models.Account{
		UserID:         userID,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			// concurrent first use, re-read
			return s.accounts.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "balance": initialBalance}).Info("Created paper trading account")
	return account, nil
}

// ResetAccount wipes trades and positions and restores the balance
func (s *Service) ResetAccount(ctx context.Context, userID string, balance float64) error {
	if balance <= 0 {
		balance = DefaultInitialBalance
	}
	if err := s.trades.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.positions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.accounts.Reset(ctx, userID, balance); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("Reset paper trading account")
	return nil
}

// ExecuteTrade fills a market order at the given price and updates cash
// and the position book
func (s *Service) ExecuteTrade(ctx context.Context, userID, symbol string, side models.OrderSide, quantity, price float64) (*models.Trade, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	if price <= 0 {
		return nil, fmt.Errorf("price must be positive, got %v", price)
	}

	account, err := s.GetOrCreateAccount(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	qty := decimal.NewFromFloat(quantity)
	px := decimal.NewFromFloat(price)
	total := qty.Mul(px)
	cash := decimal.NewFromFloat(account.CurrentBalance)

	switch side {
	case models.OrderSideBuy:
		if cash.LessThan(total) {
			return nil, fmt.Errorf("need %s, have %s: %w", total.StringFixed(2), cash.StringFixed(2), models.ErrInsufficientFunds)
		}
		if err := s.applyBuy(ctx, userID, symbol, qty, px, total); err != nil {
			return nil, err
		}
		cash = cash.Sub(total)
	case models.OrderSideSell:
		if err := s.applySell(ctx, userID, symbol, qty, px); err != nil {
			return nil, err
		}
		cash = cash.Add(total)
	default:
		return nil, fmt.Errorf("unknown order side %q", side)
	}

	newBalance, _ := cash.Float64()
	if err := s.accounts.UpdateBalance(ctx, userID, newBalance); err != nil {
		return nil, err
	}

	totalAmount, _ := total.Float64()
	trade := &models.Trade{
		ID:          uuid.New(),
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: totalAmount,
		Status:      models.TradeStatusExecuted,
		ExecutedAt:  time.Now().UTC(),
	}
	if err := s.trades.Create(ctx, trade); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity,
		"price":    price,
	}).Info("Executed paper trade")
	return trade, nil
}

// applyBuy folds a fill into the position, maintaining the average entry
// price over the combined quantity
func (s *Service) applyBuy(ctx context.Context, userID, symbol string, qty, px, total decimal.Decimal) error {
	existing, err := s.positions.GetByUserAndSymbol(ctx, userID, symbol)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if existing == nil {
		quantity, _ := qty.Float64()
		price, _ := px.Float64()
		cost, _ := total.Float64()
		return s.positions.Upsert(ctx, &models.Position{
			ID:            uuid.New(),
			UserID:        userID,
			Symbol:        symbol,
			Quantity:      quantity,
			AvgEntryPrice: price,
			TotalCost:     cost,
			OpenedAt:      time.Now().UTC(),
		})
	}

	oldQty := decimal.NewFromFloat(existing.Quantity)
	oldCost := decimal.NewFromFloat(existing.TotalCost)
	newQty := oldQty.Add(qty)
	newCost := oldCost.Add(total)
	avgPrice := newCost.Div(newQty)

	existing.Quantity, _ = newQty.Float64()
	existing.TotalCost, _ = newCost.Float64()
	existing.AvgEntryPrice, _ = avgPrice.Float64()
	return s.positions.Upsert(ctx, existing)
}

// applySell reduces or closes the position; selling more than held fails
func (s *Service) applySell(ctx context.Context, userID, symbol string, qty, px decimal.Decimal) error {
	existing, err := s.positions.GetByUserAndSymbol(ctx, userID, symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("no position in %s: %w", symbol, models.ErrInsufficientShares)
		}
		return err
	}

	held := decimal.NewFromFloat(existing.Quantity)
	if held.LessThan(qty) {
		return fmt.Errorf("selling %s of %s held: %w", qty.String(), held.String(), models.ErrInsufficientShares)
	}

	remaining := held.Sub(qty)
	if remaining.IsZero() {
		return s.positions.Delete(ctx, userID, symbol)
	}

	avg := decimal.NewFromFloat(existing.AvgEntryPrice)
	existing.Quantity, _ = remaining.Float64()
	existing.TotalCost, _ = avg.Mul(remaining).Float64()
	return s.positions.Upsert(ctx, existing)
}

// GetPortfolio marks every position to live prices and totals the account.
// Symbols without a live price fall back to their entry price.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	account, err := s.GetOrCreateAccount(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	positions, err := s.positions.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tradesCount, err := s.trades.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.PortfolioSnapshot{
		UserID:      userID,
		CashBalance: models.Round2(account.CurrentBalance),
		TradesCount: tradesCount,
		Positions:   make([]models.PositionValue, 0, len(positions)),
	}

	invested := decimal.Zero
	marketValue := decimal.Zero
	for _, position := range positions {
		price, err := s.prices.CurrentPrice(ctx, position.Symbol)
		if err != nil {
			s.log.WithFields(logrus.Fields{"symbol": position.Symbol, "error": err}).Warn("No live price, marking position at entry")
			price = position.AvgEntryPrice
		}

		qty := decimal.NewFromFloat(position.Quantity)
		cost := decimal.NewFromFloat(position.TotalCost)
		value := qty.Mul(decimal.NewFromFloat(price))
		pnl := value.Sub(cost)

		pnlPct := 0.0
		if cost.IsPositive() {
			pnlPct, _ = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Float64()
		}

		valueF, _ := value.Float64()
		pnlF, _ := pnl.Float64()
		snapshot.Positions = append(snapshot.Positions, models.PositionValue{
			Symbol:           position.Symbol,
			Quantity:         position.Quantity,
			AvgEntryPrice:    models.Round2(position.AvgEntryPrice),
			CurrentPrice:     models.Round2(price),
			UnrealizedPnL:    models.Round2(pnlF),
			UnrealizedPnLPct: models.Round2(pnlPct),
			TotalValue:       models.Round2(valueF),
		})

		invested = invested.Add(cost)
		marketValue = marketValue.Add(value)
	}

	cash := decimal.NewFromFloat(account.CurrentBalance)
	totalValue := cash.Add(marketValue)
	initial := decimal.NewFromFloat(account.InitialBalance)
	totalPnL := totalValue.Sub(initial)

	investedF, _ := invested.Float64()
	totalValueF, _ := totalValue.Float64()
	totalPnLF, _ := totalPnL.Float64()
	snapshot.TotalInvested = models.Round2(investedF)
	snapshot.TotalValue = models.Round2(totalValueF)
	snapshot.TotalPnL = models.Round2(totalPnLF)
	if initial.IsPositive() {
		pct, _ := totalPnL.Div(initial).Mul(decimal.NewFromInt(100)).Float64()
		snapshot.TotalPnLPct = models.Round2(pct)
	}
	return snapshot, nil
}

// TradeHistory lists recent trades, optionally filtered by symbol
func (s *Service) TradeHistory(ctx context.Context, userID, symbol string, limit int) ([]*models.Trade, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if symbol != "" {
		return s.trades.GetByUserAndSymbol(ctx, userID, symbol, limit)
	}
	return s.trades.GetByUserID(ctx, userID, limit)
}

// RecordSignal persists a detected signal for later review
func (s *Service) RecordSignal(ctx context.Context, event *models.SignalEvent) (*models.StoredSignal, error) {
	stored := &models.StoredSignal{
		ID:        uuid.New(),
		Symbol:    event.Symbol,
		Direction: string(event.Direction),
		Strategy:  event.Strategy,
		Price:     event.Price,
		Payload:   event.Message,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.signals.Insert(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// ListSignals returns stored signals for a symbol, or recent active
// signals across all symbols when the symbol is empty
func (s *Service) ListSignals(ctx context.Context, symbol string, limit int) ([]*models.StoredSignal, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if symbol != "" {
		return s.signals.GetBySymbol(ctx, symbol, limit)
	}
	return s.signals.GetRecent(ctx, time.Now().AddDate(0, 0, -7), limit)
}
