// Package metrics exposes run counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"StockPulse/internal/model"
)

// Metrics holds the collectors updated after every pipeline run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Runs          *prometheus.CounterVec
	SymbolResults *prometheus.CounterVec
	Rows          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	LastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		SymbolResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Name:      "symbol_results_total",
			Help:      "Per-symbol results by final status.",
		}, []string{"status"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Name:      "rows_total",
			Help:      "Loaded rows by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockpulse",
			Name:      "run_duration_seconds",
			Help:      "Wall time of pipeline runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stockpulse",
			Name:      "last_success_timestamp_seconds",
			Help:      "Finish time of the last run that loaded data.",
		}),
	}
	reg.MustRegister(m.Runs, m.SymbolResults, m.Rows, m.RunDuration, m.LastSuccess)
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(run *model.RunReport) {
	if m == nil || run == nil {
		return
	}
	m.Runs.WithLabelValues(string(run.Outcome)).Inc()
	for _, s := range run.Symbols {
		m.SymbolResults.WithLabelValues(string(s.Status)).Inc()
	}
	m.Rows.WithLabelValues("inserted").Add(float64(run.Inserted))
	m.Rows.WithLabelValues("duplicate").Add(float64(run.Duplicates))
	m.Rows.WithLabelValues("failed").Add(float64(run.Failed))
	m.RunDuration.Observe(run.Duration().Seconds())
	if run.Outcome == model.OutcomeCompleted || run.Outcome == model.OutcomePartial {
		m.LastSuccess.Set(float64(run.FinishedAt.Unix()))
	}
}
