package collector

import (
	"context"

	"StockPulse/internal/model"
)

// Fetcher retrieves the raw daily series for one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*model.RawPayload, error)
	Name() string
}
