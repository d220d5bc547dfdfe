// Package pipeline runs the fetch, transform, load and report stages over
// the symbol universe.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
	"StockPulse/internal/store"
	"StockPulse/internal/transformer"
)

//go:generate mockgen -package=pipeline_test -destination=mock_fetcher_test.go StockPulse/internal/collector Fetcher
//go:generate mockgen -package=pipeline_test -destination=mock_loader_test.go StockPulse/internal/store Loader
//go:generate mockgen -package=pipeline_test -destination=mock_pipeline_test.go -source=pipeline.go

// ErrRunInProgress is returned when Run is called while another run of the
// same pipeline has not finished.
var ErrRunInProgress = errors.New("run already in progress")

// Reporter renders the summary of a loaded run and returns where it was written.
type Reporter interface {
	Report(ctx context.Context, run *model.RunReport, records []model.StockRecord) (string, error)
}

// RunSaver keeps the last finished run.
type RunSaver interface {
	Save(run *model.RunReport) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter sets the reporter. Without one the Reporting stage is a no-op.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithRunState saves every finished run to s.
func WithRunState(s RunSaver) Option {
	return func(p *Pipeline) { p.state = s }
}

// WithMetrics records every finished run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline orchestrates one ETL run at a time.
type Pipeline struct {
	collector *collector.Collector
	loader    store.Loader
	symbols   []string
	reporter  Reporter
	state     RunSaver
	metrics   *metrics.Metrics
	now       func() time.Time

	running atomic.Bool
}

// New creates a pipeline over a fixed symbol universe.
func New(col *collector.Collector, loader store.Loader, symbols []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector: col,
		loader:    loader,
		symbols:   model.NormalizeSymbols(symbols),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Symbols returns the universe the pipeline runs over.
func (p *Pipeline) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// Run executes one full pass. Per-symbol failures never fail the run; they
// are recorded in the returned report. An error is returned only when the
// storage stages fail, together with the report as far as it got.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	run := model.NewRunReport(uuid.NewString(), p.symbols, p.now())
	defer p.finish(run)
	log.Printf("[INFO] run %s: starting for %d symbols", run.RunID, len(p.symbols))

	run.State = model.StateFetching
	fetched, cancelled := p.fetch(ctx, run)
	if len(fetched) == 0 {
		log.Printf("[WARN] run %s: no payloads fetched", run.RunID)
		return p.done(run, model.OutcomeNoData), nil
	}

	run.State = model.StateTransforming
	records := p.transform(run, fetched)
	run.Transformed = len(records)
	if len(records) == 0 {
		log.Printf("[WARN] run %s: no valid records", run.RunID)
		return p.done(run, model.OutcomeNoData), nil
	}

	// Work already fetched is kept even when the run context has ended.
	loadCtx := ctx
	if cancelled {
		loadCtx = context.WithoutCancel(ctx)
	}

	run.State = model.StateLoading
	if err := p.loader.EnsureSchema(loadCtx); err != nil {
		run.Error = err.Error()
		p.done(run, model.OutcomeFailed)
		return run, fmt.Errorf("ensure schema: %w", err)
	}
	res, err := p.loader.Load(loadCtx, records)
	run.Inserted, run.Duplicates, run.Failed = res.Inserted, res.Duplicates, res.Failed
	if err != nil {
		run.Error = err.Error()
		p.done(run, model.OutcomeFailed)
		return run, fmt.Errorf("load: %w", err)
	}
	for i := range run.Symbols {
		if run.Symbols[i].Status == model.SymbolTransformed {
			run.Symbols[i].Status = model.SymbolLoaded
		}
	}
	log.Printf("[INFO] run %s: loaded %d records (inserted=%d duplicates=%d failed=%d)",
		run.RunID, len(records), res.Inserted, res.Duplicates, res.Failed)

	run.State = model.StateReporting
	if p.reporter != nil {
		path, err := p.reporter.Report(loadCtx, run, records)
		if err != nil {
			run.ReportError = err.Error()
			log.Printf("[ERROR] run %s: report failed: %v", run.RunID, err)
		} else {
			run.ReportPath = path
		}
	}

	if cancelled {
		return p.done(run, model.OutcomePartial), nil
	}
	return p.done(run, model.OutcomeCompleted), nil
}

func (p *Pipeline) fetch(ctx context.Context, run *model.RunReport) ([]collector.Result, bool) {
	results := p.collector.Collect(ctx, p.symbols)

	cancelled := false
	fetched := make([]collector.Result, 0, len(results))
	for _, r := range results {
		sr := run.Symbol(r.Symbol)
		switch {
		case r.Abandoned():
			cancelled = true
			sr.Status = model.SymbolAbandoned
			sr.Error = r.Err.Error()
			log.Printf("[WARN] run %s: %s abandoned: %v", run.RunID, r.Symbol, r.Err)
		case r.Err != nil:
			sr.Status = model.SymbolFetchFailed
			sr.ErrorKind = string(collector.KindOf(r.Err))
			sr.Error = r.Err.Error()
			log.Printf("[WARN] run %s: %v", run.RunID, r.Err)
		case r.Payload == nil:
			sr.Status = model.SymbolFetchFailed
			sr.Error = "empty payload"
			log.Printf("[WARN] run %s: %s returned no payload", run.RunID, r.Symbol)
		default:
			fetched = append(fetched, r)
		}
	}
	if ctx.Err() != nil {
		cancelled = true
	}
	log.Printf("[INFO] run %s: fetched %d/%d symbols", run.RunID, len(fetched), len(results))
	return fetched, cancelled
}

func (p *Pipeline) transform(run *model.RunReport, fetched []collector.Result) []model.StockRecord {
	var records []model.StockRecord
	for _, r := range fetched {
		sr := run.Symbol(r.Symbol)
		recs, err := transformer.Transform(r.Payload, r.Symbol)
		if err != nil {
			sr.Status = model.SymbolInvalid
			sr.ErrorKind = "validation"
			sr.Error = err.Error()
			log.Printf("[WARN] run %s: %v", run.RunID, err)
			continue
		}
		sr.Status = model.SymbolTransformed
		sr.Records = len(recs)
		records = append(records, recs...)
	}
	return records
}

func (p *Pipeline) done(run *model.RunReport, outcome model.Outcome) *model.RunReport {
	run.State = model.StateDone
	run.Outcome = outcome
	return run
}

func (p *Pipeline) finish(run *model.RunReport) {
	run.FinishedAt = p.now()
	if p.state != nil {
		if err := p.state.Save(run); err != nil {
			log.Printf("[ERROR] run %s: save run state: %v", run.RunID, err)
		}
	}
	p.metrics.ObserveRun(run)
	log.Printf("[INFO] run %s: %s in %s", run.RunID, run.Outcome, run.Duration().Round(time.Millisecond))
}
