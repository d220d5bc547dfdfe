package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"StockPulse/internal/model"
)

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Date(2024, 1, 2, 22, 30, 0, 0, time.UTC)
	run := &model.RunReport{
		StartedAt:  start,
		FinishedAt: start.Add(30 * time.Second),
		Outcome:    model.OutcomeCompleted,
		Symbols: []model.SymbolResult{
			{Symbol: "IBM", Status: model.SymbolLoaded},
			{Symbol: "AAPL", Status: model.SymbolFetchFailed},
		},
		Inserted:   100,
		Duplicates: 3,
	}

	m.ObserveRun(run)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SymbolResults.WithLabelValues("fetch_failed")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.Rows.WithLabelValues("inserted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Rows.WithLabelValues("duplicate")))
	assert.Equal(t, float64(start.Add(30*time.Second).Unix()), testutil.ToFloat64(m.LastSuccess))
}

func TestObserveRun_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRun(&model.RunReport{}) })
}
