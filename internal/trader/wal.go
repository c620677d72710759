package trader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// WAL states
const (
	WALStatePending   = "PENDING"   // written before the order is sent
	WALStateConfirmed = "CONFIRMED" // receipt successful, about to be deleted
)

// WALEntry is an in-flight order persisted for crash recovery.
type WALEntry struct {
	DecisionID string        `json:"decision_id"`
	ItemID     string        `json:"item_id"`
	Symbol     string        `json:"symbol"`
	CountryID  string        `json:"country_id"`
	Outcome    types.Outcome `json:"outcome"`
	Collateral string        `json:"collateral"` // base units
	State      string        `json:"state"`
	TxHash     string        `json:"tx_hash,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// WAL stores one JSON file per in-flight order.
type WAL struct {
	dir string
}

// NewWAL creates a WAL rooted at dir.
func NewWAL(dir string) *WAL {
	return &WAL{dir: dir}
}

// path maps decisionID to its file. IDs that are not a single path element
// are rejected so an entry can never land outside dir.
func (w *WAL) path(decisionID string) (string, error) {
	if decisionID == "" || decisionID == "." || decisionID == ".." ||
		strings.ContainsAny(decisionID, `/\`) || filepath.Base(decisionID) != decisionID {
		return "", fmt.Errorf("invalid WAL decision id %q", decisionID)
	}
	return filepath.Join(w.dir, decisionID+".json"), nil
}

func (w *WAL) ensureDir() error {
	return os.MkdirAll(w.dir, 0700)
}

// Load returns the entry for decisionID, or nil when none exists.
func (w *WAL) Load(decisionID string) (*WALEntry, error) {
	path, err := w.path(decisionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read WAL file: %w", err)
	}

	var entry WALEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse WAL file: %w", err)
	}
	return &entry, nil
}

// Save writes entry atomically.
func (w *WAL) Save(entry *WALEntry) error {
	path, err := w.path(entry.DecisionID)
	if err != nil {
		return err
	}
	if err := w.ensureDir(); err != nil {
		return fmt.Errorf("failed to create WAL directory: %w", err)
	}

	entry.UpdatedAt = time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.UpdatedAt
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal WAL entry: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write WAL temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename WAL temp file: %w", err)
	}
	return nil
}

// Delete removes the entry for decisionID.
func (w *WAL) Delete(decisionID string) error {
	path, err := w.path(decisionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete WAL file: %w", err)
	}
	return nil
}

// List returns every readable entry. Unparseable files are skipped.
func (w *WAL) List() ([]*WALEntry, error) {
	if err := w.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	files, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAL directory: %w", err)
	}

	var entries []*WALEntry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		entry, err := w.Load(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil || entry == nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CleanupOld removes entries not updated within maxAge.
func (w *WAL) CleanupOld(maxAge time.Duration) (int, error) {
	entries, err := w.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range entries {
		if time.Since(e.UpdatedAt) > maxAge {
			if err := w.Delete(e.DecisionID); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
