package models

import "time"

// SignalDirection indicates the suggested trade direction
type SignalDirection string

const (
	SignalBuy  SignalDirection = "buy"
	SignalSell SignalDirection = "sell"
)

// SignalStrength classifies how decisively a detector condition fired
type SignalStrength string

const (
	SignalStrong   SignalStrength = "strong"
	SignalModerate SignalStrength = "moderate"
	SignalWeak     SignalStrength = "weak"
)

// SignalEvent is a discrete buy/sell event emitted when an indicator
// condition fires on the latest bar transition. Detectors never generate
// events retroactively for older bars.
type SignalEvent struct {
	Symbol     string             `json:"symbol"`
	Direction  SignalDirection    `json:"direction"`
	Strength   SignalStrength     `json:"strength"`
	Strategy   string             `json:"strategy"`
	Price      float64            `json:"price"`
	Timestamp  time.Time          `json:"timestamp"`
	Indicators map[string]float64 `json:"indicators"`
	Message    string             `json:"message"`
}
