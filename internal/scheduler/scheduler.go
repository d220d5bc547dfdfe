package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/runstate"
	"StockPulse/internal/store"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*model.RunReport, error)
}

// RunHistory returns the last finished run.
type RunHistory interface {
	Last() (model.RunReport, error)
}

// Scheduler triggers pipeline runs on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Runner     Runner
	Reader     store.Reader
	History    RunHistory
	Notifier   *notifier.TelegramNotifier
	RunTimeout time.Duration
	Ctx        context.Context

	wg sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Cron expressions include seconds.
func NewScheduler(ctx context.Context, runner Runner, reader store.Reader, history RunHistory, tn *notifier.TelegramNotifier, runTimeout time.Duration) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Runner:     runner,
		Reader:     reader,
		History:    history,
		Notifier:   tn,
		RunTimeout: runTimeout,
		Ctx:        ctx,
	}
}

// Register adds the daily run.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyRun); err != nil {
		return fmt.Errorf("register daily run: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the daily run immediately and blocks until it finishes.
// Stop waits for it.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.dailyRun()
}

// RunAsync starts the daily run in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dailyRun()
	}()
}

func (s *Scheduler) dailyRun() {
	log.Println("[INFO] running daily pipeline")
	ctx := s.Ctx
	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RunTimeout)
		defer cancel()
	}

	run, err := s.Runner.Run(ctx)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		log.Println("[WARN] daily run skipped: previous run still in progress")
		return
	}
	if err != nil {
		log.Printf("[ERROR] daily run: %v", err)
	}
	if run != nil {
		s.trySend(notifier.FormatRunReport(run))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run":
		s.RunAsync()
		return "🚀 Run started"
	case "/overview":
		return s.overview(ctx)
	case "/status":
		run, err := s.History.Last()
		if errors.Is(err, runstate.ErrNoRun) {
			return "No run recorded yet"
		}
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatRunReport(&run)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) overview(ctx context.Context) string {
	date, err := s.Reader.LatestDate(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "No market data available"
	}
	if err != nil {
		log.Printf("[ERROR] overview: %v", err)
		return fmt.Sprintf("❌ %v", err)
	}
	records, err := s.Reader.RecordsOn(ctx, date)
	if err != nil {
		log.Printf("[ERROR] overview: %v", err)
		return fmt.Sprintf("❌ %v", err)
	}
	ov, err := calculator.Overview(records)
	if err != nil {
		return "No market data available"
	}
	return notifier.FormatOverview(ov)
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
