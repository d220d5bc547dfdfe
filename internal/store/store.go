// Package store persists StockRecords and serves them back to the read API.
package store

import (
	"context"
	"errors"
	"fmt"

	"StockPulse/internal/model"
)

// ErrNotFound is returned by reads that have nothing to return.
var ErrNotFound = errors.New("not found")

// StorageError wraps a failed storage operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// LoadResult counts what happened to each record passed to Load.
type LoadResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Add accumulates another result into r.
func (r *LoadResult) Add(o LoadResult) {
	r.Inserted += o.Inserted
	r.Duplicates += o.Duplicates
	r.Failed += o.Failed
}

// Loader is the write side used by the pipeline.
type Loader interface {
	// EnsureSchema creates the table and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error
	// Load inserts records. A (symbol, date) pair already stored is counted
	// as a duplicate and left untouched.
	Load(ctx context.Context, records []model.StockRecord) (LoadResult, error)
}

// Reader is the read side used by the API and the reporter.
type Reader interface {
	// LatestPerSymbol returns the most recent record of every symbol, by symbol.
	LatestPerSymbol(ctx context.Context) ([]model.StockRecord, error)
	// History returns every record of symbol in ascending date order.
	History(ctx context.Context, symbol string) ([]model.StockRecord, error)
	// RecordsOn returns all records of one trading date, by symbol.
	RecordsOn(ctx context.Context, date string) ([]model.StockRecord, error)
	// LatestDate returns the most recent stored date, or ErrNotFound.
	LatestDate(ctx context.Context) (string, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Store is a storage backend.
type Store interface {
	Loader
	Reader
	Close() error
}

// Open connects to the backend named by driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		s, err := NewSQLiteStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("unknown driver %q", driver)}
	}
}
