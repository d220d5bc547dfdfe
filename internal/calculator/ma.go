package calculator

import (
	"errors"

	"StockPulse/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the period.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// Closes extracts closing prices, keeping the input order.
func Closes(records []model.StockRecord) []float64 {
	closes := make([]float64, len(records))
	for i, r := range records {
		closes[i] = r.Close
	}
	return closes
}
