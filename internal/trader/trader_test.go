package trader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/contracts"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

var tradingAddr = common.HexToAddress("0x1000000000000000000000000000000000000003")

type order struct {
	outcome types.Outcome
	country string
	amount  int64
}

type fakeTrading struct {
	mu      sync.Mutex
	orders  []order
	err     error
	sent    string
	release chan struct{}
}

func (f *fakeTrading) Address() common.Address { return tradingAddr }

func (f *fakeTrading) open(outcome types.Outcome, country string, amount *big.Int) (*contracts.TxResult, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order{outcome, country, amount.Int64()})
	if f.err != nil {
		if f.sent != "" {
			return &contracts.TxResult{TxHash: f.sent}, f.err
		}
		return nil, f.err
	}
	return &contracts.TxResult{TxHash: fmt.Sprintf("0x%d", len(f.orders)), BlockNumber: 7}, nil
}

func (f *fakeTrading) OpenLong(_ context.Context, country string, amount *big.Int) (*contracts.TxResult, error) {
	return f.open(types.OutcomeLong, country, amount)
}

func (f *fakeTrading) OpenShort(_ context.Context, country string, amount *big.Int) (*contracts.TxResult, error) {
	return f.open(types.OutcomeShort, country, amount)
}

type fakeJournal struct {
	mu        sync.Mutex
	decisions map[string]*types.Decision
	order     []string
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{decisions: map[string]*types.Decision{}}
}

func (j *fakeJournal) Record(_ context.Context, item types.DerivativeNews, outcome types.Outcome, status string) (types.Decision, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	d := types.Decision{
		ID:      fmt.Sprintf("d-%d", len(j.order)+1),
		ItemID:  item.ID,
		Symbol:  item.Symbol,
		Outcome: outcome,
		Status:  status,
	}
	j.decisions[d.ID] = &d
	j.order = append(j.order, d.ID)
	return d, nil
}

func (j *fakeJournal) UpdateStatus(_ context.Context, id, status, txHash, errText string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	d, ok := j.decisions[id]
	if !ok {
		return errors.New("not found")
	}
	d.Status = status
	if txHash != "" {
		d.TxHash = txHash
	}
	d.Error = errText
	return nil
}

func (j *fakeJournal) get(id string) types.Decision {
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j.decisions[id]
}

type fakeToken struct {
	mu        sync.Mutex
	allowance int64
	approvals int
}

func (f *fakeToken) Allowance(context.Context, common.Address, common.Address) (*big.Int, error) {
	return big.NewInt(f.allowance), nil
}

func (f *fakeToken) Approve(context.Context, common.Address, *big.Int) (*contracts.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals++
	return &contracts.TxResult{TxHash: "0xapprove"}, nil
}

func news(id, symbol string) types.DerivativeNews {
	return types.DerivativeNews{ID: id, Title: "headline " + id, Symbol: symbol}
}

func TestTrader_OutcomesThroughEngine(t *testing.T) {
	trading := &fakeTrading{}
	journal := newFakeJournal()
	wal := NewWAL(t.TempDir())
	token := &fakeToken{}
	tr := New(trading, big.NewInt(10_000_000),
		WithJournal(journal),
		WithWAL(wal),
		WithAllowance(token, common.HexToAddress("0xabc")),
	)

	engine := swipe.New([]types.DerivativeNews{
		news("1", "IDN"), news("2", "USA"), news("3", "SGP"),
	}, tr.Callbacks())

	if _, ok := engine.DragEnd(150, 0); !ok {
		t.Fatal("expected long")
	}
	if _, ok := engine.DragEnd(-150, 0); !ok {
		t.Fatal("expected short")
	}
	if _, ok := engine.DragEnd(0, -150); !ok {
		t.Fatal("expected skip")
	}
	tr.Wait()

	if len(trading.orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(trading.orders))
	}
	want := map[order]bool{
		{types.OutcomeLong, "ID", 10_000_000}:  true,
		{types.OutcomeShort, "US", 10_000_000}: true,
	}
	for _, o := range trading.orders {
		if !want[o] {
			t.Errorf("unexpected order %+v", o)
		}
	}
	if token.approvals != 2 {
		t.Errorf("expected an approval per order, got %d", token.approvals)
	}

	if d := journal.get("d-1"); d.Status != types.DecisionStatusConfirmed || d.TxHash == "" {
		t.Errorf("long decision = %+v", d)
	}
	if d := journal.get("d-3"); d.Outcome != types.OutcomeSkip || d.Status != types.DecisionStatusRecorded {
		t.Errorf("skip decision = %+v", d)
	}

	entries, _ := wal.List()
	if len(entries) != 0 {
		t.Errorf("confirmed orders must leave the WAL, %d remain", len(entries))
	}
}

func TestTrader_WALIgnoresItemIDWithoutJournal(t *testing.T) {
	root := t.TempDir()
	wal := NewWAL(filepath.Join(root, "a", "b", "wal"))
	trading := &fakeTrading{release: make(chan struct{})}
	tr := New(trading, big.NewInt(1), WithWAL(wal))

	tr.Submit(news("../../escape", "USA"), types.OutcomeLong)

	entries, err := wal.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 WAL entry, got %d", len(entries))
	}
	if _, err := uuid.Parse(entries[0].DecisionID); err != nil {
		t.Errorf("decision id %q is not generated: %v", entries[0].DecisionID, err)
	}
	if entries[0].ItemID != "../../escape" {
		t.Errorf("item id = %q", entries[0].ItemID)
	}
	if stray, _ := filepath.Glob(filepath.Join(root, "a", "*.json")); len(stray) != 0 {
		t.Errorf("WAL wrote outside its directory: %v", stray)
	}

	close(trading.release)
	tr.Wait()
	if entries, _ := wal.List(); len(entries) != 0 {
		t.Errorf("confirmed order must leave the WAL, %d remain", len(entries))
	}
}

func TestTrader_CallbackDoesNotBlock(t *testing.T) {
	trading := &fakeTrading{release: make(chan struct{})}
	tr := New(trading, big.NewInt(1), WithJournal(newFakeJournal()))

	done := make(chan struct{})
	go func() {
		tr.Callbacks().OnLong(news("1", "USA"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback blocked on the order")
	}
	close(trading.release)
	tr.Wait()
}

func TestTrader_UnknownSymbol(t *testing.T) {
	trading := &fakeTrading{}
	journal := newFakeJournal()
	tr := New(trading, big.NewInt(1), WithJournal(journal))

	tr.Submit(news("1", "XAUUSD"), types.OutcomeLong)
	tr.Wait()

	if len(trading.orders) != 0 {
		t.Error("no order for an unknown symbol")
	}
	d := journal.get("d-1")
	if d.Status != types.DecisionStatusFailed || d.Error == "" {
		t.Errorf("decision = %+v", d)
	}
}

func TestTrader_OrderFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		sent       string
		wantStatus string
		wantWAL    int
	}{
		{"rejected before send", errors.New("insufficient margin"), "", types.DecisionStatusFailed, 0},
		{"reverted", fmt.Errorf("%w: openLongPosition", types.ErrTransactionFailed), "0xdead", types.DecisionStatusFailed, 0},
		{"receipt timeout", context.DeadlineExceeded, "0xbeef", types.DecisionStatusPending, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trading := &fakeTrading{err: tt.err, sent: tt.sent}
			journal := newFakeJournal()
			wal := NewWAL(t.TempDir())
			tr := New(trading, big.NewInt(1), WithJournal(journal), WithWAL(wal))

			tr.Submit(news("1", "IDN"), types.OutcomeLong)
			tr.Wait()

			d := journal.get("d-1")
			if d.Status != tt.wantStatus || d.TxHash != tt.sent || d.Error == "" {
				t.Errorf("decision = %+v", d)
			}
			entries, _ := wal.List()
			if len(entries) != tt.wantWAL {
				t.Errorf("WAL entries = %d, want %d", len(entries), tt.wantWAL)
			}
		})
	}
}

func TestTrader_ReadOnlyJournalsOnly(t *testing.T) {
	journal := newFakeJournal()
	tr := New(nil, big.NewInt(1), WithJournal(journal))

	tr.Submit(news("1", "IDN"), types.OutcomeShort)
	tr.Wait()

	if d := journal.get("d-1"); d.Status != types.DecisionStatusRecorded || d.Outcome != types.OutcomeShort {
		t.Errorf("decision = %+v", d)
	}
}

func TestTrader_Recover(t *testing.T) {
	journal := newFakeJournal()
	pending, _ := journal.Record(context.Background(), news("1", "IDN"), types.OutcomeLong, types.DecisionStatusPending)
	confirmed, _ := journal.Record(context.Background(), news("2", "USA"), types.OutcomeShort, types.DecisionStatusPending)

	wal := NewWAL(t.TempDir())
	wal.Save(&WALEntry{DecisionID: pending.ID, CountryID: "ID", Outcome: types.OutcomeLong, State: WALStatePending, TxHash: "0x1"})
	wal.Save(&WALEntry{DecisionID: confirmed.ID, CountryID: "US", Outcome: types.OutcomeShort, State: WALStateConfirmed, TxHash: "0x2"})

	tr := New(&fakeTrading{}, big.NewInt(1), WithJournal(journal), WithWAL(wal))
	entries, err := tr.Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 recovered entries, got %d", len(entries))
	}

	if d := journal.get(pending.ID); d.Status != types.DecisionStatusUnknown || d.TxHash != "0x1" {
		t.Errorf("pending decision = %+v", d)
	}
	if d := journal.get(confirmed.ID); d.Status != types.DecisionStatusConfirmed {
		t.Errorf("confirmed decision = %+v", d)
	}
	if left, _ := wal.List(); len(left) != 0 {
		t.Errorf("WAL must be empty after recovery, %d left", len(left))
	}
}
