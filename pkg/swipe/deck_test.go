package swipe

import (
	"errors"
	"sync"
	"testing"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

func TestDeck_Apply(t *testing.T) {
	rec := &recorder{}
	d := NewDeck("deck-1", newsItems(2), rec.callbacks())

	if applied, _, err := d.Apply(Event{Type: EventDragStart}); !applied || err != nil {
		t.Fatalf("drag start = (%v, %v)", applied, err)
	}
	if _, snap, _ := d.Apply(Event{Type: EventDragMove, DX: 70}); snap.Intensity != 0.5 {
		t.Errorf("expected intensity 0.5, got %v", snap.Intensity)
	}
	_, snap, err := d.Apply(Event{Type: EventDragEnd, DX: 200, DY: 10})
	if err != nil {
		t.Fatalf("drag end error = %v", err)
	}
	if snap.ActiveIndex != 1 || snap.LastOutcome != types.OutcomeLong {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	_, snap, err = d.Apply(Event{Type: EventAction, Outcome: types.OutcomeSkip})
	if err != nil {
		t.Fatalf("action error = %v", err)
	}
	if snap.State != StateExhausted || snap.ActiveItem != nil {
		t.Errorf("expected exhausted, got %+v", snap)
	}
	if len(rec.long) != 1 || len(rec.skip) != 1 {
		t.Errorf("long=%v skip=%v", rec.long, rec.skip)
	}
}

func TestDeck_UnknownEvent(t *testing.T) {
	d := NewDeck("deck-1", newsItems(1), Callbacks{})
	if _, _, err := d.Apply(Event{Type: "pinch"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDeck_ConcurrentActionsResolveOncePerItem(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	count := func(item types.DerivativeNews) {
		mu.Lock()
		seen[item.ID]++
		mu.Unlock()
	}
	d := NewDeck("deck-1", newsItems(5), Callbacks{OnLong: count, OnShort: count, OnSkip: count})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := []types.Outcome{types.OutcomeLong, types.OutcomeShort, types.OutcomeSkip}[i%3]
			d.Apply(Event{Type: EventAction, Outcome: outcome})
		}(i)
	}
	wg.Wait()

	if len(seen) != 5 {
		t.Errorf("expected 5 resolved items, got %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s resolved %d times", id, n)
		}
	}
	if d.Snapshot().State != StateExhausted {
		t.Error("expected exhausted deck")
	}
}
