package portfolio

// Holding is one position valued at the current price.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`         // units held
	Price        float64 `json:"price"`          // USD per unit
	Change24hPct float64 `json:"change_24h_pct"` // fraction, 0.035 = +3.5%
}

// Quote is a price book entry.
type Quote struct {
	Price        float64 `json:"price" toml:"price"`
	Change24hPct float64 `json:"change_24h_pct" toml:"change_24h_pct"`
	Name         string  `json:"name,omitempty" toml:"name"`
}

// PriceBook maps a symbol to its quote.
type PriceBook map[string]Quote

// WalletCoin is an amount of one index held by the wallet.
type WalletCoin struct {
	Symbol string  `json:"symbol" toml:"symbol"`
	Name   string  `json:"name,omitempty" toml:"name"`
	Amount float64 `json:"amount" toml:"amount"`
}

// DefaultPriceBook is used until live prices are wired in.
func DefaultPriceBook() PriceBook {
	return PriceBook{
		"IDN": {Price: 3550, Change24hPct: 0.018, Name: "Indonesian Synthetic Nation Index"},
		"USA": {Price: 68000, Change24hPct: -0.006, Name: "US Synthetic Nation Index"},
		"JPN": {Price: 185, Change24hPct: 0.042, Name: "JPN Synthetic Nation Index"},
	}
}

// DefaultWallet is the demo wallet.
func DefaultWallet() []WalletCoin {
	return []WalletCoin{
		{Symbol: "IDN", Name: "Indonesian Synthetic Nation Index", Amount: 2.4},
		{Symbol: "USA", Name: "US Synthetic Nation Index", Amount: 0.18},
		{Symbol: "JPN", Name: "JPN Synthetic Nation Index", Amount: 35},
	}
}

// Holdings prices the wallet. Symbols missing from the book are priced at 0.
func Holdings(wallet []WalletCoin, book PriceBook) []Holding {
	holdings := make([]Holding, 0, len(wallet))
	for _, c := range wallet {
		q := book[c.Symbol]
		name := c.Name
		if name == "" {
			name = q.Name
		}
		if name == "" {
			name = c.Symbol
		}
		holdings = append(holdings, Holding{
			Symbol:       c.Symbol,
			Name:         name,
			Amount:       c.Amount,
			Price:        q.Price,
			Change24hPct: q.Change24hPct,
		})
	}
	return holdings
}

// WithMarketPrices overrides book prices with live index prices keyed by symbol.
func (b PriceBook) WithMarketPrices(prices map[string]float64) PriceBook {
	out := make(PriceBook, len(b))
	for sym, q := range b {
		out[sym] = q
	}
	for sym, p := range prices {
		q := out[sym]
		q.Price = p
		out[sym] = q
	}
	return out
}
