package calculator

import (
	"math"
	"sort"

	"StockPulse/internal/model"
)

// Indicator periods used in the daily summary.
const (
	SMAPeriod   = 20
	RSIPeriod   = 14
	RangeWindow = 100 // compact series length
)

// PercentChange is the open-to-close change in percent, rounded to 2 decimals.
func PercentChange(open, close float64) float64 {
	if open <= 0 {
		return 0
	}
	return round2((close - open) / open * 100)
}

// Overview computes the KPIs of the most recent date present in records.
// Only records of that date are considered. Ties on change go to the
// alphabetically first symbol. It returns ErrInsufficientData for no records.
func Overview(records []model.StockRecord) (model.MarketOverview, error) {
	if len(records) == 0 {
		return model.MarketOverview{}, ErrInsufficientData
	}

	latest := ""
	for _, r := range records {
		if r.Date > latest {
			latest = r.Date
		}
	}

	day := make([]model.StockRecord, 0, len(records))
	for _, r := range records {
		if r.Date == latest {
			day = append(day, r)
		}
	}
	sort.Slice(day, func(i, j int) bool { return day[i].Symbol < day[j].Symbol })

	ov := model.MarketOverview{Date: latest}
	ranked := false
	for _, r := range day {
		ov.TotalVolume += r.Volume
		if r.Open <= 0 {
			continue
		}
		change := PercentChange(r.Open, r.Close)
		if !ranked {
			ov.TopGainerSymbol, ov.TopGainerChange = r.Symbol, change
			ov.TopLoserSymbol, ov.TopLoserChange = r.Symbol, change
			ranked = true
			continue
		}
		if change > ov.TopGainerChange {
			ov.TopGainerSymbol, ov.TopGainerChange = r.Symbol, change
		}
		if change < ov.TopLoserChange {
			ov.TopLoserSymbol, ov.TopLoserChange = r.Symbol, change
		}
	}
	return ov, nil
}

// Summarize builds the daily summary for date from per-symbol histories in
// ascending date order. Symbols without a record on date are left out.
func Summarize(date string, histories map[string][]model.StockRecord) model.DailySummary {
	symbols := make([]string, 0, len(histories))
	for s := range histories {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var day []model.StockRecord
	var rows []model.SymbolSummary
	for _, symbol := range symbols {
		history := histories[symbol]
		idx := sort.Search(len(history), func(i int) bool { return history[i].Date >= date })
		if idx == len(history) || history[idx].Date != date {
			continue
		}
		window := history[:idx+1]
		last := history[idx]
		day = append(day, last)

		row := model.SymbolSummary{
			Symbol: symbol,
			Date:   date,
			Close:  last.Close,
			Change: PercentChange(last.Open, last.Close),
			Volume: last.Volume,
		}
		if sma, err := CalculateSMA(Closes(window), SMAPeriod); err == nil {
			sma = round2(sma)
			row.SMA20 = &sma
		}
		if rsi, err := CalculateRSI(window, RSIPeriod); err == nil {
			rsi = round2(rsi)
			row.RSI14 = &rsi
		}
		if high, low, err := WindowRange(window, RangeWindow); err == nil {
			row.WindowHigh, row.WindowLow = high, low
			if pos, err := RangePosition(last.Close, high, low); err == nil {
				row.Position = round2(pos)
			}
		}
		rows = append(rows, row)
	}

	ov, _ := Overview(day)
	ov.Date = date
	return model.DailySummary{Overview: ov, Symbols: len(rows), Rows: rows}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
