package forecast

import "errors"

var (
	// ErrServiceUnavailable indicates the forecasting service could not be reached
	ErrServiceUnavailable = errors.New("forecast service unavailable")
	// ErrInsufficientHistory indicates too few bars to request a forecast
	ErrInsufficientHistory = errors.New("insufficient history for forecast")
	// ErrInvalidResponse indicates the service returned an unusable payload
	ErrInvalidResponse = errors.New("invalid forecast response")
)
