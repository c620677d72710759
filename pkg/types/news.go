package types

import "time"

// DerivativeNews is a single news card the user can go long, short or skip on.
// It is the DecisionItem of the swipe engine: only ID is meaningful to the engine,
// the rest is display payload.
type DerivativeNews struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Symbol   string `json:"symbol"`           // e.g. "USA", "IDN"
	Source   string `json:"source,omitempty"` // publisher
	Time     string `json:"time,omitempty"`   // display timestamp as delivered by the feed
	ImageURL string `json:"imageUrl,omitempty"`
}

// Outcome is the terminal classification of one decision.
type Outcome string

// Outcome constants
const (
	OutcomeLong  Outcome = "long"
	OutcomeShort Outcome = "short"
	OutcomeSkip  Outcome = "skip"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeLong, OutcomeShort, OutcomeSkip:
		return true
	}
	return false
}

// ParseOutcome converts user input into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", ErrUnknownOutcome
	}
	return o, nil
}

// Decision is the record of a resolved outcome for a news item.
type Decision struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Symbol    string    `json:"symbol"`
	Outcome   Outcome   `json:"outcome"`
	Status    string    `json:"status"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision status constants
const (
	DecisionStatusRecorded  = "recorded"  // skip, or long/short without a trader
	DecisionStatusPending   = "pending"   // transaction sent, awaiting receipt
	DecisionStatusConfirmed = "confirmed" // receipt successful
	DecisionStatusFailed    = "failed"    // send or receipt failed
	DecisionStatusUnknown   = "unknown"   // found in WAL after restart
)
