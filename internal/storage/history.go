package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"buyloop/internal/report"
	"buyloop/internal/runner"
)

const maxItems = 100

type HistoryItem struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Config    runner.Config     `json:"config"`
	Payload   string            `json:"payload_prefix"`
	Summary   report.RunSummary `json:"summary"`
}

// NewHistoryItem records a finished run. Only a short prefix of the
// payload is kept.
func NewHistoryItem(cfg runner.Config, res runner.Result, now time.Time) HistoryItem {
	return HistoryItem{
		ID:        uuid.New().String(),
		Timestamp: now,
		Config:    cfg,
		Payload:   redact(cfg.Payload),
		Summary:   report.NewRunSummary(res),
	}
}

func redact(payload string) string {
	const keep = 12
	if len(payload) <= keep {
		return payload
	}
	return payload[:keep] + "..."
}

// Store keeps the newest runs in a JSON file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	items    []HistoryItem
}

// DefaultDir is ~/.buyloop.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".buyloop"), nil
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	s := &Store{filePath: filepath.Join(dir, "history.json")}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return fmt.Errorf("history %s is corrupt: %w", s.filePath, err)
	}
	return nil
}

func (s *Store) Save(item HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first
	s.items = append([]HistoryItem{item}, s.items...)
	if len(s.items) > maxItems {
		s.items = s.items[:maxItems]
	}

	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

func (s *Store) List() []HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]HistoryItem, len(s.items))
	copy(res, s.items)
	return res
}

func (s *Store) Get(id string) *HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return &item
		}
	}
	return nil
}
