package model

import "time"

// RunState is the orchestrator's position in a run.
type RunState string

const (
	StateIdle         RunState = "idle"
	StateFetching     RunState = "fetching"
	StateTransforming RunState = "transforming"
	StateLoading      RunState = "loading"
	StateReporting    RunState = "reporting"
	StateDone         RunState = "done"
)

// Outcome summarizes how a finished run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeNoData    Outcome = "no_data"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// SymbolStatus is the per-symbol result of a run.
type SymbolStatus string

const (
	SymbolPending     SymbolStatus = "pending"
	SymbolFetchFailed SymbolStatus = "fetch_failed"
	SymbolAbandoned   SymbolStatus = "abandoned"
	SymbolInvalid     SymbolStatus = "invalid"
	SymbolTransformed SymbolStatus = "transformed"
	SymbolLoaded      SymbolStatus = "loaded"
)

// SymbolResult records what happened to one symbol.
type SymbolResult struct {
	Symbol    string       `json:"symbol"`
	Status    SymbolStatus `json:"status"`
	ErrorKind string       `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`
	Records   int          `json:"records"`
}

// RunReport is the explicit result of one pipeline run.
type RunReport struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	State       RunState       `json:"state"`
	Outcome     Outcome        `json:"outcome"`
	Symbols     []SymbolResult `json:"symbols"`
	Transformed int            `json:"transformed"`
	Inserted    int            `json:"inserted"`
	Duplicates  int            `json:"duplicates"`
	Failed      int            `json:"failed"`
	ReportPath  string         `json:"report_path,omitempty"`
	ReportError string         `json:"report_error,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewRunReport returns a report in the idle state with one pending entry per symbol.
func NewRunReport(runID string, symbols []string, now time.Time) *RunReport {
	r := &RunReport{
		RunID:     runID,
		StartedAt: now,
		State:     StateIdle,
		Symbols:   make([]SymbolResult, len(symbols)),
	}
	for i, s := range symbols {
		r.Symbols[i] = SymbolResult{Symbol: s, Status: SymbolPending}
	}
	return r
}

// Symbol returns the entry for symbol, or nil.
func (r *RunReport) Symbol(symbol string) *SymbolResult {
	for i := range r.Symbols {
		if r.Symbols[i].Symbol == symbol {
			return &r.Symbols[i]
		}
	}
	return nil
}

// Count returns how many symbols ended in the given status.
func (r *RunReport) Count(status SymbolStatus) int {
	n := 0
	for _, s := range r.Symbols {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run; zero while it is still running.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
