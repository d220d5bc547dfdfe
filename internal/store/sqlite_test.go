package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "nested", "market.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func rec(symbol, date string, open, close float64, volume int64) model.StockRecord {
	high, low := open, close
	if close > open {
		high, low = close, open
	}
	return model.StockRecord{Symbol: symbol, Date: date, Open: open, High: high + 1, Low: low - 1, Close: close, Volume: volume}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func TestLoad_EmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	res, err := s.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{}, res)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoad_SecondLoadCountsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	records := []model.StockRecord{
		rec("IBM", "2024-01-02", 163.1, 163.5, 3000000),
		rec("IBM", "2024-01-03", 163.5, 162.0, 2500000),
	}

	first, err := s.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 2}, first)

	second, err := s.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Duplicates: 2}, second)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoad_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Load(ctx, []model.StockRecord{rec("AAPL", "2024-01-02", 10, 11, 100)})
	require.NoError(t, err)
	res, err := s.Load(ctx, []model.StockRecord{
		rec("AAPL", "2024-01-02", 50, 51, 999),
		rec("AAPL", "2024-01-03", 11, 12, 200),
	})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 1, Duplicates: 1}, res)

	history, err := s.History(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 11.0, history[0].Close)
	assert.Equal(t, int64(100), history[0].Volume)
}

func TestLoad_DuplicateInsideBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	res, err := s.Load(ctx, []model.StockRecord{
		rec("MSFT", "2024-01-02", 10, 11, 100),
		rec("MSFT", "2024-01-02", 10, 11, 100),
		rec("GOOG", "2024-01-02", 20, 19, 300),
	})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 2, Duplicates: 1}, res)
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LatestDate(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Load(ctx, []model.StockRecord{
		rec("NVDA", "2024-01-03", 20, 22, 300),
		rec("IBM", "2024-01-03", 10, 9, 200),
		rec("IBM", "2024-01-01", 10, 11, 100),
		rec("IBM", "2024-01-02", 11, 10, 150),
		rec("NVDA", "2024-01-02", 19, 20, 250),
	})
	require.NoError(t, err)

	history, err := s.History(ctx, "IBM")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-01-01", history[0].Date)
	assert.Equal(t, "2024-01-03", history[2].Date)

	unknown, err := s.History(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	latest, err := s.LatestPerSymbol(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "IBM", latest[0].Symbol)
	assert.Equal(t, "2024-01-03", latest[0].Date)
	assert.Equal(t, "NVDA", latest[1].Symbol)

	date, err := s.LatestDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", date)

	day, err := s.RecordsOn(ctx, date)
	require.NoError(t, err)
	assert.Len(t, day, 2)

	require.NoError(t, s.Ping(ctx))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "open", serr.Op)
}

func TestLoadResult_Add(t *testing.T) {
	total := LoadResult{Inserted: 1}
	total.Add(LoadResult{Inserted: 2, Duplicates: 3, Failed: 1})
	assert.Equal(t, LoadResult{Inserted: 3, Duplicates: 3, Failed: 1}, total)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "data/x.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("data/x.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("file:x.db?mode=rwc"))
}

func TestNewSQLiteStore_PragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Hold the first connection so the second comes from a fresh open.
	first, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for i, conn := range []*sql.Conn{first, second} {
		var timeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 5000, timeout, "connection %d", i)

		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode, "connection %d", i)
	}
}
