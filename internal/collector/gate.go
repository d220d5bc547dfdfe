package collector

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate is the process-wide admission gate for upstream requests: at most
// maxConcurrency in flight, and consecutive admissions at least delay apart.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGate creates a gate. A zero delay disables spacing; concurrency below
// one is raised to one.
func NewGate(maxConcurrency int, delay time.Duration) *Gate {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Gate{
		sem:     semaphore.NewWeighted(int64(maxConcurrency)),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Admit blocks until a request may start. The returned func releases the
// slot and must be called once the request completes.
func (g *Gate) Admit(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		g.sem.Release(1)
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}
