package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"StockPulse/internal/model"
)

// Result is the outcome of fetching one symbol: a payload or an error.
type Result struct {
	Symbol  string
	Payload *model.RawPayload
	Err     error
}

// Abandoned reports whether the symbol was dropped because the run ended.
func (r Result) Abandoned() bool {
	return errors.Is(r.Err, ErrAbandoned)
}

// Collector fans fetches out over the symbol universe.
type Collector struct {
	Fetcher Fetcher
	Gate    *Gate
}

// NewCollector creates a new Collector. A nil gate admits everything.
func NewCollector(fetcher Fetcher, gate *Gate) *Collector {
	return &Collector{Fetcher: fetcher, Gate: gate}
}

// Collect fetches every symbol and returns one Result per symbol, in input
// order. Symbols are admitted through the gate one after another, so the
// universe is walked in order; up to the gate's limit run concurrently.
// When ctx ends, symbols not yet admitted, and in-flight fetches that fail
// because of it, are marked abandoned.
func (c *Collector) Collect(ctx context.Context, symbols []string) []Result {
	results := make([]Result, len(symbols))
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		release, err := c.admit(ctx)
		if err != nil {
			for j := i; j < len(symbols); j++ {
				results[j] = Result{Symbol: symbols[j], Err: fmt.Errorf("%w: %v", ErrAbandoned, err)}
			}
			break
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer release()

			payload, err := c.Fetcher.Fetch(ctx, symbol)
			if err != nil && ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", ErrAbandoned, err)
			}
			results[i] = Result{Symbol: symbol, Payload: payload, Err: err}
		}(i, symbol)
	}

	wg.Wait()
	return results
}

func (c *Collector) admit(ctx context.Context) (func(), error) {
	if c.Gate == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return func() {}, nil
	}
	return c.Gate.Admit(ctx)
}
