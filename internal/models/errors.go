package models

import "errors"

// Custom errors
var (
	ErrUnknownStrategy    = errors.New("unknown strategy type")
	ErrUnknownWeighting   = errors.New("unknown weighting strategy")
	ErrInsufficientData   = errors.New("insufficient data for computation")
	ErrNoData             = errors.New("no data available for symbol")
	ErrNotFound           = errors.New("record not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidID          = errors.New("invalid ID format")
)
