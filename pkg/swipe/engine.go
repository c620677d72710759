package swipe

import (
	"log"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// State is the engine lifecycle state.
type State string

const (
	StateIdle      State = "idle"      // item presented, awaiting interaction
	StateResolving State = "resolving" // outcome committed, exit transition in flight
	StateExhausted State = "exhausted" // no items remain
)

// Offset is the pointer displacement from the rest position.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Callbacks receive the active item when an outcome is resolved. Each is optional.
type Callbacks struct {
	OnLong  func(item types.DerivativeNews)
	OnShort func(item types.DerivativeNews)
	OnSkip  func(item types.DerivativeNews)
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeedbackSink sets the sound/vibration sink used when long or short is committed.
func WithFeedbackSink(sink FeedbackSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithReducedMotion disables title emphasis in the visual feedback.
func WithReducedMotion(reduced bool) Option {
	return func(e *Engine) { e.reducedMotion = reduced }
}

// WithViewportWidth sets the width used for cosmetic exit distances.
func WithViewportWidth(width float64) Option {
	return func(e *Engine) { e.viewportWidth = width }
}

// WithExitTransition keeps the engine in StateResolving after an outcome until
// Settle is called. Without it resolution settles immediately.
func WithExitTransition() Option {
	return func(e *Engine) { e.manualSettle = true }
}

// Engine is the swipe decision engine. It owns one active item at a time from an
// ordered queue, tracks the drag offset and turns gestures or manual actions into
// exactly one outcome per item.
//
// Engine is not safe for concurrent use; see Deck.
type Engine struct {
	items []types.DerivativeNews
	cb    Callbacks
	sink  FeedbackSink

	active   int
	offset   Offset
	dragging bool
	state    State

	lastOutcome types.Outcome
	exiting     *types.DerivativeNews
	dispatching bool

	reducedMotion bool
	viewportWidth float64
	manualSettle  bool
}

// New creates an engine over items. An empty slice starts exhausted.
// Item IDs are assumed unique; the engine does not check.
func New(items []types.DerivativeNews, cb Callbacks, opts ...Option) *Engine {
	e := &Engine{
		items:         append([]types.DerivativeNews(nil), items...),
		cb:            cb,
		sink:          NopFeedback{},
		viewportWidth: DefaultViewportWidth,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.items) == 0 {
		e.state = StateExhausted
	}
	return e
}

// DragStart begins a drag. Ignored unless idle.
func (e *Engine) DragStart() bool {
	if e.state != StateIdle {
		return false
	}
	e.dragging = true
	e.offset = Offset{}
	return true
}

// DragMove records the cumulative offset from drag start. Ignored unless idle.
func (e *Engine) DragMove(dx, dy float64) bool {
	if e.state != StateIdle {
		return false
	}
	e.dragging = true
	e.offset = Offset{X: resist(dx), Y: resist(dy)}
	return true
}

// DragEnd classifies the released drag. When no outcome results the card returns
// to rest and the engine stays idle on the same item.
func (e *Engine) DragEnd(dx, dy float64) (types.Outcome, bool) {
	if e.state != StateIdle {
		return "", false
	}
	e.dragging = false
	outcome, ok := Classify(dx, dy)
	if !ok {
		e.offset = Offset{}
		return "", false
	}
	e.resolve(outcome)
	return outcome, true
}

// Trigger applies a manual long/short/skip. It goes through the same transition
// as a classified drag. Returns false when the engine is not idle.
func (e *Engine) Trigger(outcome types.Outcome) (bool, error) {
	if !outcome.Valid() {
		return false, types.ErrUnknownOutcome
	}
	if e.state != StateIdle {
		return false, nil
	}
	e.dragging = false
	e.resolve(outcome)
	return true, nil
}

// Settle ends the exit transition started by a resolved outcome.
func (e *Engine) Settle() bool {
	if e.state != StateResolving || e.dispatching {
		return false
	}
	e.exiting = nil
	if e.active < len(e.items) {
		e.state = StateIdle
	} else {
		e.state = StateExhausted
	}
	return true
}

// resolve commits outcome for the active item. The commit is synchronous: the
// cursor advances and the callback fires before resolve returns. Only the
// visual settling may be deferred. Settle is ignored while a callback runs.
func (e *Engine) resolve(outcome types.Outcome) {
	item := e.items[e.active]
	e.state = StateResolving
	e.lastOutcome = outcome
	e.exiting = &item
	e.active++
	e.offset = Offset{}

	e.dispatching = true
	switch outcome {
	case types.OutcomeLong:
		e.feedback(func() { e.sink.PlayLong(); e.sink.Vibrate(LongVibration) })
		e.dispatch(outcome, e.cb.OnLong, item)
	case types.OutcomeShort:
		e.feedback(func() { e.sink.PlayShort(); e.sink.Vibrate(ShortVibration) })
		e.dispatch(outcome, e.cb.OnShort, item)
	case types.OutcomeSkip:
		e.dispatch(outcome, e.cb.OnSkip, item)
	}
	e.dispatching = false

	if !e.manualSettle {
		e.Settle()
	}
}

func (e *Engine) dispatch(outcome types.Outcome, fn func(types.DerivativeNews), item types.DerivativeNews) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  swipe: %s callback for item %s panicked: %v", outcome, item.ID, r)
		}
	}()
	fn(item)
}

func (e *Engine) feedback(play func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  swipe: feedback sink failed: %v", r)
		}
	}()
	play()
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// ActiveIndex returns the queue cursor, in [0, Len()].
func (e *Engine) ActiveIndex() int { return e.active }

// Len returns the number of items in the queue.
func (e *Engine) Len() int { return len(e.items) }

// ActiveItem returns the item awaiting a decision, if any.
func (e *Engine) ActiveItem() (types.DerivativeNews, bool) {
	if e.active >= len(e.items) {
		return types.DerivativeNews{}, false
	}
	return e.items[e.active], true
}

// Exiting returns the item whose exit transition is in flight.
func (e *Engine) Exiting() (types.DerivativeNews, types.Outcome, bool) {
	if e.state != StateResolving || e.exiting == nil {
		return types.DerivativeNews{}, "", false
	}
	return *e.exiting, e.lastOutcome, true
}

// LastOutcome returns the most recently resolved outcome.
func (e *Engine) LastOutcome() types.Outcome { return e.lastOutcome }

// Offset returns the current drag offset.
func (e *Engine) Offset() Offset { return e.offset }

// Dragging reports whether a drag is in progress.
func (e *Engine) Dragging() bool { return e.dragging }

// Intensity returns min(1, |x|/140) for the current offset.
func (e *Engine) Intensity() float64 { return Intensity(e.offset.X) }

// DirectionSign returns the sign of the current horizontal offset.
func (e *Engine) DirectionSign() int { return Sign(e.offset.X) }

// Rotation returns the cosmetic card tilt for the current offset.
func (e *Engine) Rotation() float64 { return Rotation(e.offset.X) }

// Feedback computes the visual state for the current offset.
func (e *Engine) Feedback() VisualState {
	return ComputeVisualFeedback(e.offset, e.reducedMotion)
}

// ExitTarget returns the cosmetic exit vector for outcome using the configured viewport.
func (e *Engine) ExitTarget(outcome types.Outcome) Exit {
	return ExitTarget(outcome, e.viewportWidth)
}

// Snapshot is a serialisable view of everything a renderer may sample each frame.
type Snapshot struct {
	State       State                 `json:"state"`
	ActiveIndex int                   `json:"active_index"`
	Length      int                   `json:"length"`
	ActiveItem  *types.DerivativeNews `json:"active_item"`
	Offset      Offset                `json:"offset"`
	Dragging    bool                  `json:"dragging"`
	Intensity   float64               `json:"intensity"`
	Direction   int                   `json:"direction"`
	Rotation    float64               `json:"rotation"`
	LastOutcome types.Outcome         `json:"last_outcome,omitempty"`
	Exit        *Exit                 `json:"exit,omitempty"`
	Feedback    VisualState           `json:"feedback"`
}

// Snapshot captures the observable outputs.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:       e.state,
		ActiveIndex: e.active,
		Length:      len(e.items),
		Offset:      e.offset,
		Dragging:    e.dragging,
		Intensity:   e.Intensity(),
		Direction:   e.DirectionSign(),
		Rotation:    e.Rotation(),
		LastOutcome: e.lastOutcome,
		Feedback:    e.Feedback(),
	}
	if item, ok := e.ActiveItem(); ok {
		s.ActiveItem = &item
	}
	if _, outcome, ok := e.Exiting(); ok {
		exit := e.ExitTarget(outcome)
		s.Exit = &exit
	}
	return s
}
