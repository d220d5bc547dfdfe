package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"StockPulse/internal/model"
)

const recordColumns = "symbol, date, open, high, low, close, volume"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists records to a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); !strings.HasPrefix(path, "file:") && path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	log.Printf("[INFO] sqlite store opened: %s", path)
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN adds the pragmas the driver applies to every pooled connection.
// WAL lets the API read while a run writes.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_data (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT    NOT NULL,
			date   TEXT    NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER NOT NULL,
			UNIQUE (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_data_date ON stock_data(date)`,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}

// Load inserts records in one transaction. A row rejected for a reason
// other than a conflict is counted as failed; the rest are still committed.
func (s *SQLiteStore) Load(ctx context.Context, records []model.StockRecord) (LoadResult, error) {
	var res LoadResult
	if len(records) == 0 {
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stock_data (`+recordColumns+`)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (symbol, date) DO NOTHING`)
	if err != nil {
		return res, &StorageError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	for _, r := range records {
		result, err := stmt.ExecContext(ctx, r.Symbol, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume)
		if err != nil {
			log.Printf("[WARN] insert %s %s: %v", r.Symbol, r.Date, err)
			res.Failed++
			continue
		}
		if n, _ := result.RowsAffected(); n == 0 {
			res.Duplicates++
		} else {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return LoadResult{Failed: len(records)}, &StorageError{Op: "commit", Err: err}
	}
	return res, nil
}

func (s *SQLiteStore) LatestPerSymbol(ctx context.Context) ([]model.StockRecord, error) {
	return s.query(ctx, "latest per symbol", `SELECT s.symbol, s.date, s.open, s.high, s.low, s.close, s.volume
		FROM stock_data s
		JOIN (SELECT symbol, MAX(date) AS date FROM stock_data GROUP BY symbol) m
		  ON s.symbol = m.symbol AND s.date = m.date
		ORDER BY s.symbol`)
}

func (s *SQLiteStore) History(ctx context.Context, symbol string) ([]model.StockRecord, error) {
	return s.query(ctx, "history", `SELECT `+recordColumns+` FROM stock_data
		WHERE symbol = ? ORDER BY date ASC`, symbol)
}

func (s *SQLiteStore) RecordsOn(ctx context.Context, date string) ([]model.StockRecord, error) {
	return s.query(ctx, "records on", `SELECT `+recordColumns+` FROM stock_data
		WHERE date = ? ORDER BY symbol`, date)
}

func (s *SQLiteStore) LatestDate(ctx context.Context) (string, error) {
	var date sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM stock_data`).Scan(&date); err != nil {
		return "", &StorageError{Op: "latest date", Err: err}
	}
	if !date.Valid {
		return "", ErrNotFound
	}
	return date.String, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_data`).Scan(&n); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, op, q string, args ...any) ([]model.StockRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	var out []model.StockRecord
	for rows.Next() {
		var r model.StockRecord
		if err := rows.Scan(&r.Symbol, &r.Date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, &StorageError{Op: op, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, &StorageError{Op: op, Err: err}
	}
	return out, nil
}
