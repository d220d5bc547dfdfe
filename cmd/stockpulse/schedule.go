package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"

	"StockPulse/internal/scheduler"
)

// scheduleCmd runs the pipeline on the configured cron schedule.
type scheduleCmd struct {
	runOnStart bool
	serve      bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "run the pipeline on a cron schedule" }
func (*scheduleCmd) Usage() string {
	return `stockpulse schedule [-run-on-start] [-serve]

  Runs the pipeline on schedule.daily_cron until interrupted. With Telegram
  configured, chat commands /run, /overview and /status are answered.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "run-on-start", false, "Run the pipeline once immediately")
	f.BoolVar(&c.serve, "serve", false, "Also serve the read API")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	if err := cfg.ValidateSource(); err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.pipeline()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	sched := scheduler.NewScheduler(ctx, p, a.store, a.state, a.notifier, cfg.Schedule.RunTimeout)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()
	log.Printf("[INFO] daily run scheduled at %q", cfg.Schedule.DailyCron)

	if a.notifier.Enabled() {
		go a.notifier.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if c.runOnStart {
		log.Println("[INFO] run-on-start enabled, executing pipeline now")
		sched.RunAsync()
	}

	if c.serve {
		if err := serveHTTP(ctx, a.httpServer()); err != nil {
			log.Printf("[ERROR] %v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	log.Println("[INFO] StockPulse is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return subcommands.ExitSuccess
}
