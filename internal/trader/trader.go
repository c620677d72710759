package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/contracts"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// DefaultOrderTimeout bounds one order including allowance and receipt.
const DefaultOrderTimeout = 6 * time.Minute

// Trading opens positions. Satisfied by *contracts.CountryTrading.
type Trading interface {
	Address() common.Address
	OpenLong(ctx context.Context, countryID string, collateral *big.Int) (*contracts.TxResult, error)
	OpenShort(ctx context.Context, countryID string, collateral *big.Int) (*contracts.TxResult, error)
}

// Journal records decisions. Satisfied by *journal.Journal.
type Journal interface {
	Record(ctx context.Context, item types.DerivativeNews, outcome types.Outcome, status string) (types.Decision, error)
	UpdateStatus(ctx context.Context, id, status, txHash, errText string) error
}

// Trader turns engine outcomes into on-chain orders. Its callbacks return at
// once; orders run on their own goroutines and failures are logged and
// journalled, never returned to the engine.
type Trader struct {
	trading    Trading
	collateral *big.Int
	countries  []types.Country
	journal    Journal
	wal        *WAL
	timeout    time.Duration

	token AllowanceSource

	wg sync.WaitGroup
}

// AllowanceSource is the collateral token and the wallet that spends it.
type AllowanceSource struct {
	Token contracts.AllowanceToken
	Owner common.Address
}

// Option configures a Trader.
type Option func(*Trader)

// WithJournal records every decision.
func WithJournal(j Journal) Option {
	return func(t *Trader) { t.journal = j }
}

// WithWAL persists in-flight orders.
func WithWAL(w *WAL) Option {
	return func(t *Trader) { t.wal = w }
}

// WithCountries sets the symbol to country mapping.
func WithCountries(countries []types.Country) Option {
	return func(t *Trader) { t.countries = countries }
}

// WithAllowance approves collateral for the trading contract before each order.
func WithAllowance(token contracts.AllowanceToken, owner common.Address) Option {
	return func(t *Trader) { t.token = AllowanceSource{Token: token, Owner: owner} }
}

// WithOrderTimeout overrides DefaultOrderTimeout.
func WithOrderTimeout(d time.Duration) Option {
	return func(t *Trader) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// New creates a trader. A nil trading only journals decisions.
func New(trading Trading, collateral *big.Int, opts ...Option) *Trader {
	t := &Trader{
		trading:    trading,
		collateral: collateral,
		countries:  types.DefaultCountries(),
		timeout:    DefaultOrderTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Callbacks returns the engine callbacks bound to this trader.
func (t *Trader) Callbacks() swipe.Callbacks {
	return swipe.Callbacks{
		OnLong:  func(item types.DerivativeNews) { t.Submit(item, types.OutcomeLong) },
		OnShort: func(item types.DerivativeNews) { t.Submit(item, types.OutcomeShort) },
		OnSkip:  func(item types.DerivativeNews) { t.Submit(item, types.OutcomeSkip) },
	}
}

// Submit journals the decision and, for long or short, starts the order.
func (t *Trader) Submit(item types.DerivativeNews, outcome types.Outcome) {
	ctx := context.Background()

	if outcome == types.OutcomeSkip || t.trading == nil {
		t.record(ctx, item, outcome, types.DecisionStatusRecorded)
		return
	}

	decision := t.record(ctx, item, outcome, types.DecisionStatusPending)

	country, ok := types.CountryBySymbol(t.countries, item.Symbol)
	if !ok {
		err := fmt.Errorf("%w: %s", types.ErrCountryNotFound, item.Symbol)
		log.Printf("❌ trader: %s %s: %v", outcome, item.ID, err)
		t.update(ctx, decision.ID, types.DecisionStatusFailed, "", err)
		return
	}

	entry := &WALEntry{
		DecisionID: decision.ID,
		ItemID:     item.ID,
		Symbol:     item.Symbol,
		CountryID:  country.ID,
		Outcome:    outcome,
		Collateral: t.collateral.String(),
		State:      WALStatePending,
	}
	if entry.DecisionID == "" {
		entry.DecisionID = uuid.NewString()
	}
	if t.wal != nil {
		if err := t.wal.Save(entry); err != nil {
			log.Printf("⚠️  trader: failed to write WAL for %s: %v", item.ID, err)
		}
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.execute(entry)
	}()
}

func (t *Trader) execute(entry *WALEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	log.Printf("📤 trader: opening %s on %s with %s collateral", entry.Outcome, entry.CountryID, entry.Collateral)

	if t.token.Token != nil {
		if _, err := contracts.EnsureAllowance(ctx, t.token.Token, t.token.Owner, t.trading.Address(), t.collateral); err != nil {
			t.fail(entry, "", err)
			return
		}
	}

	var (
		result *contracts.TxResult
		err    error
	)
	if entry.Outcome == types.OutcomeLong {
		result, err = t.trading.OpenLong(ctx, entry.CountryID, t.collateral)
	} else {
		result, err = t.trading.OpenShort(ctx, entry.CountryID, t.collateral)
	}
	if err != nil {
		t.fail(entry, result.SentHash(), err)
		return
	}

	entry.State = WALStateConfirmed
	entry.TxHash = result.TxHash
	if t.wal != nil {
		if err := t.wal.Save(entry); err != nil {
			log.Printf("⚠️  trader: failed to update WAL for %s: %v", entry.DecisionID, err)
		}
	}
	t.update(ctx, entry.DecisionID, types.DecisionStatusConfirmed, result.TxHash, nil)
	t.deleteWAL(entry.DecisionID)

	log.Printf("✅ trader: %s %s confirmed in block %d (%s)", entry.Outcome, entry.CountryID, result.BlockNumber, result.TxHash)
}

// fail journals a failed order. A sent transaction whose receipt never arrived
// keeps its WAL entry so Recover can report it. The order context may already
// be expired, so journalling uses a fresh one.
func (t *Trader) fail(entry *WALEntry, txHash string, err error) {
	log.Printf("❌ trader: %s %s failed: %v", entry.Outcome, entry.CountryID, err)

	if txHash != "" && !errors.Is(err, types.ErrTransactionFailed) {
		entry.TxHash = txHash
		if t.wal != nil {
			if werr := t.wal.Save(entry); werr != nil {
				log.Printf("⚠️  trader: failed to update WAL for %s: %v", entry.DecisionID, werr)
			}
		}
		t.update(context.Background(), entry.DecisionID, types.DecisionStatusPending, txHash, err)
		return
	}

	t.update(context.Background(), entry.DecisionID, types.DecisionStatusFailed, txHash, err)
	t.deleteWAL(entry.DecisionID)
}

// Recover reports orders left in the WAL by a previous run as unknown and
// clears them. It returns the recovered entries.
func (t *Trader) Recover(ctx context.Context) ([]*WALEntry, error) {
	if t.wal == nil {
		return nil, nil
	}
	entries, err := t.wal.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		status := types.DecisionStatusUnknown
		if e.State == WALStateConfirmed {
			status = types.DecisionStatusConfirmed
		}
		log.Printf("🔄 trader: recovered %s order %s on %s (state %s, tx %q)", e.Outcome, e.DecisionID, e.CountryID, e.State, e.TxHash)
		t.update(ctx, e.DecisionID, status, e.TxHash, nil)
		t.deleteWAL(e.DecisionID)
	}
	return entries, nil
}

// Wait blocks until every started order has finished.
func (t *Trader) Wait() {
	t.wg.Wait()
}

func (t *Trader) record(ctx context.Context, item types.DerivativeNews, outcome types.Outcome, status string) types.Decision {
	if t.journal == nil {
		return types.Decision{ItemID: item.ID, Symbol: item.Symbol, Outcome: outcome, Status: status}
	}
	d, err := t.journal.Record(ctx, item, outcome, status)
	if err != nil {
		log.Printf("⚠️  trader: failed to journal %s on %s: %v", outcome, item.ID, err)
	}
	return d
}

func (t *Trader) update(ctx context.Context, id, status, txHash string, cause error) {
	if t.journal == nil || id == "" {
		return
	}
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if err := t.journal.UpdateStatus(ctx, id, status, txHash, errText); err != nil {
		log.Printf("⚠️  trader: failed to update journal for %s: %v", id, err)
	}
}

func (t *Trader) deleteWAL(id string) {
	if t.wal == nil {
		return
	}
	if err := t.wal.Delete(id); err != nil {
		log.Printf("⚠️  trader: %v", err)
	}
}
