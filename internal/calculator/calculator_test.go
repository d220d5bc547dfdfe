package calculator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

func series(symbol string, closes ...float64) []model.StockRecord {
	out := make([]model.StockRecord, len(closes))
	for i, c := range closes {
		out[i] = model.StockRecord{
			Symbol: symbol,
			Date:   fmt.Sprintf("2024-01-%02d", i+1),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err, "zero period")
}

func TestCalculateRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"only gains", []float64{1, 2, 3, 4, 5, 6}, 100},
		{"only losses", []float64{6, 5, 4, 3, 2, 1}, 0},
		{"alternating", []float64{10, 11, 10, 11, 10, 11}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateRSI(series("X", tt.closes...), 5)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CalculateRSI(series("X", 1, 2), 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestWindowRange(t *testing.T) {
	high, low, err := WindowRange(series("X", 5, 9, 3, 7), 2)
	require.NoError(t, err)
	assert.Equal(t, 8.0, high)
	assert.Equal(t, 2.0, low)

	high, low, err = WindowRange(series("X", 5, 9, 3, 7), 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, high, "zero window spans all records")
	assert.Equal(t, 2.0, low)

	_, _, err = WindowRange(nil, 10)
	assert.Error(t, err)
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		current, high, low, want float64
	}{
		{15, 20, 10, 0.5},
		{25, 20, 10, 1},
		{5, 20, 10, 0},
		{10, 10, 10, 0.5},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.current, tt.high, tt.low)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "RangePosition(%v, %v, %v)", tt.current, tt.high, tt.low)
	}

	_, err := RangePosition(1, 1, 2)
	assert.Error(t, err, "high below low")
}

func TestOverview(t *testing.T) {
	records := []model.StockRecord{
		{Symbol: "IBM", Date: "2024-01-02", Open: 100, Close: 90, Volume: 1000},
		{Symbol: "AAPL", Date: "2024-01-03", Open: 100, Close: 105, Volume: 2000},
		{Symbol: "MSFT", Date: "2024-01-03", Open: 200, Close: 190, Volume: 3000},
		{Symbol: "NVDA", Date: "2024-01-03", Open: 50, Close: 52.5, Volume: 4000},
	}

	ov, err := Overview(records)
	require.NoError(t, err)
	assert.Equal(t, model.MarketOverview{
		Date:            "2024-01-03",
		TotalVolume:     9000,
		TopGainerSymbol: "AAPL",
		TopGainerChange: 5,
		TopLoserSymbol:  "MSFT",
		TopLoserChange:  -5,
	}, ov)

	_, err = Overview(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestOverview_SingleRecordIsGainerAndLoser(t *testing.T) {
	ov, err := Overview([]model.StockRecord{{Symbol: "TEST", Date: "2024-01-02", Open: 163.1, Close: 163.5, Volume: 3000000}})
	require.NoError(t, err)
	assert.Equal(t, "TEST", ov.TopGainerSymbol)
	assert.Equal(t, "TEST", ov.TopLoserSymbol)
	assert.Equal(t, 0.25, ov.TopGainerChange)
}

func TestSummarize(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	ibm := series("IBM", closes...)
	short := series("AAPL", 10, 11, 12)

	sum := Summarize("2024-01-03", map[string][]model.StockRecord{"IBM": ibm, "AAPL": short})
	require.Equal(t, 2, sum.Symbols)
	assert.Equal(t, "AAPL", sum.Rows[0].Symbol)
	assert.Nil(t, sum.Rows[0].SMA20, "short history has no SMA")
	assert.Nil(t, sum.Rows[0].RSI14, "short history has no RSI")

	sum = Summarize("2024-01-25", map[string][]model.StockRecord{"IBM": ibm, "AAPL": short})
	require.Equal(t, 1, sum.Symbols, "AAPL has no record on the date")
	row := sum.Rows[0]
	require.NotNil(t, row.SMA20)
	assert.Equal(t, 114.5, *row.SMA20)
	require.NotNil(t, row.RSI14)
	assert.Equal(t, 100.0, *row.RSI14)
	assert.Equal(t, 125.0, row.WindowHigh)
	assert.Equal(t, 99.0, row.WindowLow)
	assert.Equal(t, "2024-01-25", sum.Overview.Date)
	assert.Equal(t, int64(100), sum.Overview.TotalVolume)
}
