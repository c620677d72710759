package swipe

import (
	"errors"
	"sync"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// ErrUnknownEvent is returned by Deck.Apply for an unrecognised event type.
var ErrUnknownEvent = errors.New("unknown event type")

// Deck serialises events for one Engine so hosts that receive input on several
// goroutines (HTTP handlers, websocket readers) can share it.
type Deck struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	engine *Engine
}

// NewDeck wraps a new engine.
func NewDeck(id string, items []types.DerivativeNews, cb Callbacks, opts ...Option) *Deck {
	return &Deck{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		engine:    New(items, cb, opts...),
	}
}

// Event is a single input delivered to a deck.
type Event struct {
	Type    string        `json:"type"`
	DX      float64       `json:"dx,omitempty"`
	DY      float64       `json:"dy,omitempty"`
	Outcome types.Outcome `json:"outcome,omitempty"`
}

// Event type constants
const (
	EventDragStart = "dragStart"
	EventDragMove  = "dragMove"
	EventDragEnd   = "dragEnd"
	EventAction    = "action"
	EventSettle    = "settle"
)

// Apply delivers ev and returns whether it changed the engine, plus the snapshot
// taken under the same lock.
func (d *Deck) Apply(ev Event) (bool, Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		applied bool
		err     error
	)
	switch ev.Type {
	case EventDragStart:
		applied = d.engine.DragStart()
	case EventDragMove:
		applied = d.engine.DragMove(ev.DX, ev.DY)
	case EventDragEnd:
		applied = d.engine.State() == StateIdle
		d.engine.DragEnd(ev.DX, ev.DY)
	case EventAction:
		applied, err = d.engine.Trigger(ev.Outcome)
	case EventSettle:
		applied = d.engine.Settle()
	default:
		err = ErrUnknownEvent
	}
	return applied, d.engine.Snapshot(), err
}

// Snapshot returns the current observable state.
func (d *Deck) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Snapshot()
}
