package model

// MarketOverview holds the aggregate KPIs for one trading date.
// Changes are open-to-close percentages.
type MarketOverview struct {
	Date            string  `json:"date"`
	TotalVolume     int64   `json:"total_volume"`
	TopGainerSymbol string  `json:"top_gainer_symbol"`
	TopGainerChange float64 `json:"top_gainer_change"`
	TopLoserSymbol  string  `json:"top_loser_symbol"`
	TopLoserChange  float64 `json:"top_loser_change"`
}

// SymbolSummary is one row of the daily report.
// Indicator fields are nil when the window is too short to compute them.
type SymbolSummary struct {
	Symbol     string
	Date       string
	Close      float64
	Change     float64
	Volume     int64
	SMA20      *float64
	RSI14      *float64
	WindowHigh float64
	WindowLow  float64
	Position   float64 // 0.0 ~ 1.0 within the window range
}

// DailySummary is what the reporter renders.
type DailySummary struct {
	Overview MarketOverview
	Symbols  int
	Rows     []SymbolSummary
}
