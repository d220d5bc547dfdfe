// Package api serves stored market data over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
	"StockPulse/internal/runstate"
	"StockPulse/internal/store"
)

// RunHistory returns the last finished run.
type RunHistory interface {
	Last() (model.RunReport, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Reader   store.Reader
	History  RunHistory          // optional
	Gatherer prometheus.Gatherer // optional; enables /metrics
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	// The browser dashboard is served from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/", s.root)
	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/all-stocks", s.allStocks)
		r.Get("/stock-history/{symbol}", s.stockHistory)
		r.Get("/market-overview", s.marketOverview)
		r.Get("/runs/last", s.lastRun)
	})
	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Welcome to the StockPulse API!",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.Reader.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) allStocks(w http.ResponseWriter, r *http.Request) {
	records, err := s.Reader.LatestPerSymbol(r.Context())
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "No stock data found.")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) stockHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	records, err := s.Reader.History(r.Context(), symbol)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "No historical data found for symbol: "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) marketOverview(w http.ResponseWriter, r *http.Request) {
	date, err := s.Reader.LatestDate(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No data available to generate market overview.")
		return
	}
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	records, err := s.Reader.RecordsOn(r.Context(), date)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	ov, err := calculator.Overview(records)
	if err != nil {
		writeError(w, http.StatusNotFound, "No data available to generate market overview.")
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) lastRun(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, http.StatusNotFound, "No run recorded.")
		return
	}
	run, err := s.History.Last()
	if errors.Is(err, runstate.ErrNoRun) {
		writeError(w, http.StatusNotFound, "No run recorded.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
