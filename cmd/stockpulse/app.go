package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"StockPulse/internal/api"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/metrics"
	"StockPulse/internal/notifier"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/report"
	"StockPulse/internal/runstate"
	"StockPulse/internal/store"
)

var configPath = flag.String("config", defaultConfigPath(), "Path to the YAML config file (env CONFIG_PATH)")

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app holds the process-wide handles shared by every subcommand.
type app struct {
	cfg      *config.Config
	store    store.Store
	state    *runstate.Store
	notifier *notifier.TelegramNotifier
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newApp opens storage and run state for cfg. The schema is created up front
// so the API can answer before the first run.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}

	state, err := runstate.Open(cfg.Report.StateFile)
	if err != nil {
		st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		cfg:      cfg,
		store:    st,
		state:    state,
		registry: reg,
		metrics:  metrics.New(reg),
	}
	if cfg.TelegramEnabled() {
		a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] Telegram notifications enabled")
	}
	return a, nil
}

// pipeline wires the fetcher, gate, loader and reporter.
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	if err := a.cfg.ValidateSource(); err != nil {
		return nil, err
	}
	ds := a.cfg.DataSource
	fetcher, err := collector.NewAlphaVantageFetcher(ds.BaseURL, ds.APIKey, ds.OutputSize, a.cfg.Proxy, ds.Timeout)
	if err != nil {
		return nil, err
	}
	col := collector.NewCollector(fetcher, collector.NewGate(ds.MaxConcurrency, ds.RequestDelay))
	p := pipeline.New(col, a.store, a.cfg.Symbols,
		pipeline.WithReporter(report.New(a.cfg.Report.Dir, a.store, a.notifier)),
		pipeline.WithRunState(a.state),
		pipeline.WithMetrics(a.metrics),
	)
	log.Printf("[INFO] data source: %s, symbols [%s], concurrency %d, delay %s",
		fetcher.Name(), strings.Join(p.Symbols(), ","), ds.MaxConcurrency, ds.RequestDelay)
	return p, nil
}

func (a *app) httpServer() *http.Server {
	srv := &api.Server{Reader: a.store, History: a.state, Gatherer: a.registry}
	return &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close store: %v", err)
	}
}
