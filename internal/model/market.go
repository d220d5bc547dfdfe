package model

import (
	"sort"
	"strings"
	"time"
)

// RawPayload is an upstream response body that passed the envelope checks.
type RawPayload struct {
	Symbol    string
	Body      []byte
	FetchedAt time.Time
}

// SeriesMeta is the metadata block of a daily series.
type SeriesMeta struct {
	Information   string
	Symbol        string
	LastRefreshed string
	OutputSize    string
	TimeZone      string
}

// RawPoint is one trading day exactly as delivered upstream.
type RawPoint struct {
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// RawPriceSeries is a schema-checked series whose values are not yet coerced.
type RawPriceSeries struct {
	Symbol string
	Meta   SeriesMeta
	Points map[string]RawPoint
}

// Dates returns the series dates in ascending order.
func (s *RawPriceSeries) Dates() []string {
	dates := make([]string, 0, len(s.Points))
	for d := range s.Points {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// PricePoint is a single validated trading day.
type PricePoint struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// WithSymbol flattens the point into a StockRecord.
func (p PricePoint) WithSymbol(symbol string) StockRecord {
	return StockRecord{
		Symbol: symbol,
		Date:   p.Date,
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	}
}

// StockRecord is the unit persisted and served by the read API.
// (Symbol, Date) is unique in storage.
type StockRecord struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// NormalizeSymbols upper-cases, trims and de-duplicates a symbol list,
// keeping the first occurrence order.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
