// Package transformer turns raw daily-series payloads into flat, validated
// StockRecords.
package transformer

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"StockPulse/internal/model"
)

const (
	metaKey   = "Meta Data"
	seriesKey = "Time Series (Daily)"

	fieldOpen   = "1. open"
	fieldHigh   = "2. high"
	fieldLow    = "3. low"
	fieldClose  = "4. close"
	fieldVolume = "5. volume"

	metaSymbol        = "2. Symbol"
	metaLastRefreshed = "3. Last Refreshed"
)

type wireMeta struct {
	Information   string `json:"1. Information"`
	Symbol        string `json:"2. Symbol"`
	LastRefreshed string `json:"3. Last Refreshed"`
	OutputSize    string `json:"4. Output Size"`
	TimeZone      string `json:"5. Time Zone"`
}

// Pointer fields tell a missing key apart from an empty value.
type wirePoint struct {
	Open   *string `json:"1. open"`
	High   *string `json:"2. high"`
	Low    *string `json:"3. low"`
	Close  *string `json:"4. close"`
	Volume *string `json:"5. volume"`
}

type wireSeries struct {
	Meta   *wireMeta             `json:"Meta Data"`
	Series map[string]*wirePoint `json:"Time Series (Daily)"`
}

// Parse checks payload against the daily-series schema. Values are kept as
// delivered; only their presence and the date keys are checked.
func Parse(payload *model.RawPayload, symbol string) (*model.RawPriceSeries, error) {
	if payload == nil || len(payload.Body) == 0 {
		return nil, &ValidationError{Symbol: symbol, Reason: "empty payload"}
	}

	var w wireSeries
	if err := json.Unmarshal(payload.Body, &w); err != nil {
		return nil, &ValidationError{Symbol: symbol, Reason: "malformed json", Err: err}
	}
	if w.Meta == nil {
		return nil, &ValidationError{Symbol: symbol, Field: metaKey, Reason: "missing"}
	}
	if w.Meta.Symbol == "" {
		return nil, &ValidationError{Symbol: symbol, Field: metaSymbol, Reason: "missing"}
	}
	if w.Meta.LastRefreshed == "" {
		return nil, &ValidationError{Symbol: symbol, Field: metaLastRefreshed, Reason: "missing"}
	}
	if w.Series == nil {
		return nil, &ValidationError{Symbol: symbol, Field: seriesKey, Reason: "missing"}
	}

	series := &model.RawPriceSeries{
		Symbol: symbol,
		Meta: model.SeriesMeta{
			Information:   w.Meta.Information,
			Symbol:        w.Meta.Symbol,
			LastRefreshed: w.Meta.LastRefreshed,
			OutputSize:    w.Meta.OutputSize,
			TimeZone:      w.Meta.TimeZone,
		},
		Points: make(map[string]model.RawPoint, len(w.Series)),
	}
	for date, p := range w.Series {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, &ValidationError{Symbol: symbol, Date: date, Reason: "date is not YYYY-MM-DD", Err: err}
		}
		if p == nil {
			return nil, &ValidationError{Symbol: symbol, Date: date, Reason: "point is null"}
		}
		fields := []struct {
			name  string
			value *string
		}{
			{fieldOpen, p.Open}, {fieldHigh, p.High}, {fieldLow, p.Low},
			{fieldClose, p.Close}, {fieldVolume, p.Volume},
		}
		for _, f := range fields {
			if f.value == nil {
				return nil, &ValidationError{Symbol: symbol, Date: date, Field: f.name, Reason: "missing"}
			}
		}
		series.Points[date] = model.RawPoint{
			Open:   *p.Open,
			High:   *p.High,
			Low:    *p.Low,
			Close:  *p.Close,
			Volume: *p.Volume,
		}
	}
	return series, nil
}

// Transform parses payload and flattens it into records tagged with symbol,
// ordered by date. A single bad point rejects the whole payload: the result
// is then empty and the error is a *ValidationError.
func Transform(payload *model.RawPayload, symbol string) ([]model.StockRecord, error) {
	series, err := Parse(payload, symbol)
	if err != nil {
		return nil, err
	}

	dates := series.Dates()
	records := make([]model.StockRecord, 0, len(dates))
	for _, date := range dates {
		point, err := coerce(symbol, date, series.Points[date])
		if err != nil {
			return nil, err
		}
		records = append(records, point.WithSymbol(symbol))
	}
	return records, nil
}

func coerce(symbol, date string, raw model.RawPoint) (model.PricePoint, error) {
	price := func(field, s string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, &ValidationError{Symbol: symbol, Date: date, Field: field, Reason: "not a decimal", Err: err}
		}
		if !d.IsPositive() {
			return decimal.Zero, &ValidationError{Symbol: symbol, Date: date, Field: field, Reason: "must be positive"}
		}
		// Stored as float64, so the value must survive the conversion.
		if f := d.InexactFloat64(); math.IsInf(f, 0) || f <= 0 {
			return decimal.Zero, &ValidationError{Symbol: symbol, Date: date, Field: field, Reason: "out of range"}
		}
		return d, nil
	}

	open, err := price(fieldOpen, raw.Open)
	if err != nil {
		return model.PricePoint{}, err
	}
	high, err := price(fieldHigh, raw.High)
	if err != nil {
		return model.PricePoint{}, err
	}
	low, err := price(fieldLow, raw.Low)
	if err != nil {
		return model.PricePoint{}, err
	}
	closing, err := price(fieldClose, raw.Close)
	if err != nil {
		return model.PricePoint{}, err
	}

	volume, err := strconv.ParseInt(raw.Volume, 10, 64)
	if err != nil {
		return model.PricePoint{}, &ValidationError{Symbol: symbol, Date: date, Field: fieldVolume, Reason: "not an integer", Err: err}
	}
	if volume < 0 {
		return model.PricePoint{}, &ValidationError{Symbol: symbol, Date: date, Field: fieldVolume, Reason: "must not be negative"}
	}

	if high.LessThan(decimal.Max(open, closing)) {
		return model.PricePoint{}, &ValidationError{Symbol: symbol, Date: date, Field: fieldHigh, Reason: "below open or close"}
	}
	if low.GreaterThan(decimal.Min(open, closing)) {
		return model.PricePoint{}, &ValidationError{Symbol: symbol, Date: date, Field: fieldLow, Reason: "above open or close"}
	}

	return model.PricePoint{
		Date:   date,
		Open:   open.InexactFloat64(),
		High:   high.InexactFloat64(),
		Low:    low.InexactFloat64(),
		Close:  closing.InexactFloat64(),
		Volume: volume,
	}, nil
}
