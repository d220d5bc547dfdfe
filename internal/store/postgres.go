package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"StockPulse/internal/model"
)

var _ Store = (*PostgresStore)(nil)

// pgBatchSize bounds the statements queued in one pgx.Batch.
const pgBatchSize = 1000

// PostgresStore persists records to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the pool and checks the connection.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("parse connection string: %w", err)}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("create pool: %w", err)}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("ping database: %w", err)}
	}

	log.Printf("[INFO] postgres store opened: %s@%s/%s", cfg.ConnConfig.User, cfg.ConnConfig.Host, cfg.ConnConfig.Database)
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_data (
			id     BIGSERIAL PRIMARY KEY,
			symbol TEXT             NOT NULL,
			date   TEXT             NOT NULL,
			open   DOUBLE PRECISION NOT NULL,
			high   DOUBLE PRECISION NOT NULL,
			low    DOUBLE PRECISION NOT NULL,
			close  DOUBLE PRECISION NOT NULL,
			volume BIGINT           NOT NULL,
			UNIQUE (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_data_date ON stock_data(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &StorageError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}

// Load sends records in batches of pgBatchSize. A batch runs as one implicit
// transaction: any row error fails the whole batch and the rows after it,
// while earlier batches stay committed.
func (s *PostgresStore) Load(ctx context.Context, records []model.StockRecord) (LoadResult, error) {
	var total LoadResult
	for start := 0; start < len(records); start += pgBatchSize {
		chunk := records[start:min(start+pgBatchSize, len(records))]
		res, err := s.loadBatch(ctx, chunk)
		total.Add(res)
		if err != nil {
			total.Failed += len(records) - start - len(chunk)
			return total, err
		}
	}
	return total, nil
}

func (s *PostgresStore) loadBatch(ctx context.Context, records []model.StockRecord) (LoadResult, error) {
	var res LoadResult
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO stock_data (`+recordColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, date) DO NOTHING
		`, r.Symbol, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		ct, err := results.Exec()
		if err != nil {
			return LoadResult{Failed: len(records)}, &StorageError{Op: "batch insert", Err: err}
		}
		if ct.RowsAffected() == 0 {
			res.Duplicates++
		} else {
			res.Inserted++
		}
	}
	if err := results.Close(); err != nil {
		return LoadResult{Failed: len(records)}, &StorageError{Op: "batch insert", Err: err}
	}
	return res, nil
}

func (s *PostgresStore) LatestPerSymbol(ctx context.Context) ([]model.StockRecord, error) {
	return s.query(ctx, "latest per symbol", `SELECT DISTINCT ON (symbol) `+recordColumns+`
		FROM stock_data
		ORDER BY symbol, date DESC`)
}

func (s *PostgresStore) History(ctx context.Context, symbol string) ([]model.StockRecord, error) {
	return s.query(ctx, "history", `SELECT `+recordColumns+` FROM stock_data
		WHERE symbol = $1 ORDER BY date ASC`, symbol)
}

func (s *PostgresStore) RecordsOn(ctx context.Context, date string) ([]model.StockRecord, error) {
	return s.query(ctx, "records on", `SELECT `+recordColumns+` FROM stock_data
		WHERE date = $1 ORDER BY symbol`, date)
}

func (s *PostgresStore) LatestDate(ctx context.Context) (string, error) {
	var date *string
	if err := s.pool.QueryRow(ctx, `SELECT MAX(date) FROM stock_data`).Scan(&date); err != nil {
		return "", &StorageError{Op: "latest date", Err: err}
	}
	if date == nil {
		return "", ErrNotFound
	}
	return *date, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_data`).Scan(&n); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) query(ctx context.Context, op, q string, args ...any) ([]model.StockRecord, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.StockRecord])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, &StorageError{Op: op, Err: err}
	}
	return out, nil
}
