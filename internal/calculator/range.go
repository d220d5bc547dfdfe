package calculator

import (
	"errors"
	"math"

	"StockPulse/internal/model"
)

// WindowRange returns the high and low of the most recent window records.
// A window of zero or less scans everything.
func WindowRange(records []model.StockRecord, window int) (high, low float64, err error) {
	if len(records) == 0 {
		return 0, 0, ErrInsufficientData
	}
	n := len(records)
	start := 0
	if window > 0 && n > window {
		start = n - window
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if records[i].High > high {
			high = records[i].High
		}
		if records[i].Low < low {
			low = records[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
