package journal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func item(id, symbol string) types.DerivativeNews {
	return types.DerivativeNews{ID: id, Title: "t", Symbol: symbol}
}

func TestRecordAndGet(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	d, err := j.Record(ctx, item("n1", "IDN"), types.OutcomeLong, types.DecisionStatusPending)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if d.ID == "" || d.ItemID != "n1" || d.Symbol != "IDN" {
		t.Fatalf("unexpected decision %+v", d)
	}

	got, err := j.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Outcome != types.OutcomeLong || got.Status != types.DecisionStatusPending {
		t.Errorf("unexpected stored decision %+v", got)
	}
	if !got.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, d.CreatedAt)
	}

	if _, err := j.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	d, _ := j.Record(ctx, item("n1", "USA"), types.OutcomeShort, types.DecisionStatusPending)

	if err := j.UpdateStatus(ctx, d.ID, types.DecisionStatusPending, "0xabc", ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	// empty hash keeps the stored one
	if err := j.UpdateStatus(ctx, d.ID, types.DecisionStatusFailed, "", "reverted"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, _ := j.Get(ctx, d.ID)
	if got.Status != types.DecisionStatusFailed || got.TxHash != "0xabc" || got.Error != "reverted" {
		t.Errorf("unexpected decision %+v", got)
	}

	if err := j.UpdateStatus(ctx, "missing", types.DecisionStatusFailed, "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Second)
		j.now = func() time.Time { return at }
		if _, err := j.Record(ctx, item(id, "IDN"), types.OutcomeSkip, types.DecisionStatusRecorded); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := j.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ItemID != "c" || all[2].ItemID != "a" {
		t.Errorf("unexpected order %v", all)
	}

	two, _ := j.List(ctx, 2)
	if len(two) != 2 {
		t.Errorf("expected 2 decisions, got %d", len(two))
	}
}

func TestStats(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	records := []struct {
		outcome types.Outcome
		status  string
	}{
		{types.OutcomeLong, types.DecisionStatusConfirmed},
		{types.OutcomeLong, types.DecisionStatusFailed},
		{types.OutcomeShort, types.DecisionStatusConfirmed},
		{types.OutcomeSkip, types.DecisionStatusRecorded},
	}
	for i, r := range records {
		if _, err := j.Record(ctx, item(string(rune('a'+i)), "IDN"), r.outcome, r.status); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := j.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.ByOutcome[types.OutcomeLong] != 2 || stats.ByOutcome[types.OutcomeShort] != 1 || stats.ByOutcome[types.OutcomeSkip] != 1 {
		t.Errorf("ByOutcome = %v", stats.ByOutcome)
	}
	if stats.ByStatus[types.DecisionStatusConfirmed] != 2 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
}

func TestConcurrentRecord(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := j.Record(ctx, item("n", "USA"), types.OutcomeLong, types.DecisionStatusPending); err != nil {
				t.Errorf("Record %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	stats, _ := j.Stats(ctx)
	if stats.Total != 20 {
		t.Errorf("Total = %d, want 20", stats.Total)
	}
}
