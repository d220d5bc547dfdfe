// Package runstate keeps the most recent run report on disk.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"StockPulse/internal/model"
)

// ErrNoRun is returned by Last before any run has been saved.
var ErrNoRun = errors.New("no run recorded")

// Store persists the last RunReport as JSON, with an in-memory copy.
type Store struct {
	mu       sync.Mutex
	last     *model.RunReport
	filePath string
}

// Open creates a Store backed by filePath, loading a previous report if
// the file exists.
func Open(filePath string) (*Store, error) {
	s := &Store{filePath: filePath}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read run state: %w", err)
	}
	var run model.RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse run state %s: %w", filePath, err)
	}
	s.last = &run
	return s, nil
}

// Save replaces the stored report. The file is written via rename so a
// reader never sees a partial document.
func (s *Store) Save(run *model.RunReport) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create run state dir: %w", err)
		}
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}

	cp := *run
	cp.Symbols = append([]model.SymbolResult(nil), run.Symbols...)
	s.last = &cp
	return nil
}

// Last returns a copy of the most recent report.
func (s *Store) Last() (model.RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.RunReport{}, ErrNoRun
	}
	cp := *s.last
	cp.Symbols = append([]model.SymbolResult(nil), s.last.Symbols...)
	return cp, nil
}
