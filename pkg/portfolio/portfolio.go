package portfolio

import "sync"

// Tracker combines the wallet, the price book and the closed store.
type Tracker struct {
	wallet []WalletCoin
	store  *ClosedStore

	mu   sync.RWMutex
	book PriceBook
}

// NewTracker creates a tracker. A nil book uses DefaultPriceBook.
func NewTracker(wallet []WalletCoin, book PriceBook, store *ClosedStore) *Tracker {
	if book == nil {
		book = DefaultPriceBook()
	}
	return &Tracker{wallet: wallet, book: book, store: store}
}

// UpdatePrices overrides book prices with live index prices keyed by symbol.
func (t *Tracker) UpdatePrices(prices map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.book = t.book.WithMarketPrices(prices)
}

// Summary values the open holdings.
func (t *Tracker) Summary() (Summary, error) {
	closed, err := t.store.List()
	if err != nil {
		return Summary{}, err
	}
	t.mu.RLock()
	holdings := Holdings(t.wallet, t.book)
	t.mu.RUnlock()
	return Summarize(holdings, closed), nil
}

// Close marks symbol closed.
func (t *Tracker) Close(symbol string) error { return t.store.Close(symbol) }

// ReopenAll clears every closed symbol.
func (t *Tracker) ReopenAll() error { return t.store.ReopenAll() }
