package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id          TEXT PRIMARY KEY,
	item_id     TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	status      TEXT NOT NULL,
	tx_hash     TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at);
`

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a decision id is unknown.
var ErrNotFound = errors.New("decision not found")

// Journal records every resolved decision in SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one connection serialises writes from trade goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts a decision for item and returns it with a fresh id.
func (j *Journal) Record(ctx context.Context, item types.DerivativeNews, outcome types.Outcome, status string) (types.Decision, error) {
	d := types.Decision{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Symbol:    item.Symbol,
		Outcome:   outcome,
		Status:    status,
		CreatedAt: j.now().UTC(),
	}
	ts := d.CreatedAt.Format(timeLayout)
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO decisions (id, item_id, symbol, outcome, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ItemID, d.Symbol, string(d.Outcome), d.Status, ts, ts,
	)
	if err != nil {
		return types.Decision{}, fmt.Errorf("insert decision: %w", err)
	}
	return d, nil
}

// UpdateStatus sets status, tx hash and error text of a decision. Empty txHash
// keeps the stored one.
func (j *Journal) UpdateStatus(ctx context.Context, id, status, txHash, errText string) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE decisions
		 SET status = ?, tx_hash = CASE WHEN ? = '' THEN tx_hash ELSE ? END, error = ?, updated_at = ?
		 WHERE id = ?`,
		status, txHash, txHash, errText, j.now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get returns one decision.
func (j *Journal) Get(ctx context.Context, id string) (types.Decision, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, item_id, symbol, outcome, status, tx_hash, error, created_at
		 FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Decision{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, err
}

// List returns the most recent decisions first. limit <= 0 means 100.
func (j *Journal) List(ctx context.Context, limit int) ([]types.Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, item_id, symbol, outcome, status, tx_hash, error, created_at
		 FROM decisions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := []types.Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

// Stats counts decisions per outcome and per status.
type Stats struct {
	Total     int                   `json:"total"`
	ByOutcome map[types.Outcome]int `json:"by_outcome"`
	ByStatus  map[string]int        `json:"by_status"`
}

// Stats aggregates the journal.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByOutcome: map[types.Outcome]int{}, ByStatus: map[string]int{}}

	rows, err := j.db.QueryContext(ctx, `SELECT outcome, status, COUNT(*) FROM decisions GROUP BY outcome, status`)
	if err != nil {
		return stats, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome, status string
		var n int
		if err := rows.Scan(&outcome, &status, &n); err != nil {
			return stats, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += n
		stats.ByOutcome[types.Outcome(outcome)] += n
		stats.ByStatus[status] += n
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(s scanner) (types.Decision, error) {
	var d types.Decision
	var outcome, created string
	if err := s.Scan(&d.ID, &d.ItemID, &d.Symbol, &outcome, &d.Status, &d.TxHash, &d.Error, &created); err != nil {
		return types.Decision{}, err
	}
	d.Outcome = types.Outcome(outcome)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return types.Decision{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	d.CreatedAt = t
	return d, nil
}
