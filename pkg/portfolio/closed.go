package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultClosedPath is used when no path is configured.
const DefaultClosedPath = ".nation-closed-positions.json"

type closedFile struct {
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClosedStore persists the symbols whose positions the user closed.
type ClosedStore struct {
	filePath string
	mu       sync.RWMutex
}

// NewClosedStore creates a store at filePath, creating its directory.
func NewClosedStore(filePath string) *ClosedStore {
	if filePath == "" {
		filePath = DefaultClosedPath
	}

	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		os.MkdirAll(dir, 0700)
	}

	return &ClosedStore{filePath: filePath}
}

// List returns the closed symbols in the order they were closed.
func (s *ClosedStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *ClosedStore) load() ([]string, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read closed positions: %w", err)
	}

	var f closedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse closed positions: %w", err)
	}
	if f.Symbols == nil {
		f.Symbols = []string{}
	}
	return f.Symbols, nil
}

// Close marks symbol closed. Closing twice is a no-op.
func (s *ClosedStore) Close(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range symbols {
		if existing == symbol {
			return nil
		}
	}
	return s.save(append(symbols, symbol))
}

// ReopenAll clears every closed symbol.
func (s *ClosedStore) ReopenAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete closed positions: %w", err)
	}
	return nil
}

// save writes atomically via temp file + rename. Caller holds the lock.
func (s *ClosedStore) save(symbols []string) error {
	data, err := json.MarshalIndent(closedFile{Symbols: symbols, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal closed positions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save closed positions: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (s *ClosedStore) Path() string {
	return s.filePath
}
