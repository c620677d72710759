package types

// Country is a tradable nation index.
type Country struct {
	ID        string `json:"id" toml:"id"`         // ISO-like id used for the on-chain code, e.g. "US"
	Name      string `json:"name" toml:"name"`     // e.g. "United States Index"
	Symbol    string `json:"symbol" toml:"symbol"` // ticker shown in the UI, e.g. "USA"
	PriceFeed string `json:"price_feed,omitempty" toml:"price_feed"`
}

// MarketData is the UI view of one country market.
type MarketData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	BasePrice   float64 `json:"base_price"`
	Change24h   float64 `json:"change_24h"`
	Volume24h   int64   `json:"volume_24h"`
	IsActive    bool    `json:"is_active"`
	CountryCode string  `json:"country_code"`
	PriceFeed   string  `json:"price_feed,omitempty"` // oracle feed backing the index, when configured
}

// PoolMetrics holds the liquidity pool aggregates.
type PoolMetrics struct {
	PoolBalance            float64 `json:"pool_balance"`
	TotalLongOpenInterest  float64 `json:"total_long_open_interest"`
	TotalShortOpenInterest float64 `json:"total_short_open_interest"`
}

// TokenMetadata holds basic information about a token.
type TokenMetadata struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
}

// DefaultCountries are the markets listed on Mantle Sepolia.
func DefaultCountries() []Country {
	return []Country{
		{ID: "US", Name: "United States Index", Symbol: "USA"},
		{ID: "ID", Name: "Indonesia Index", Symbol: "IDN"},
		{ID: "SG", Name: "Singapore Index", Symbol: "SGP"},
	}
}

// CountryBySymbol resolves a ticker ("USA") or a country id ("US").
func CountryBySymbol(countries []Country, symbol string) (Country, bool) {
	for _, c := range countries {
		if c.Symbol == symbol || c.ID == symbol {
			return c, true
		}
	}
	return Country{}, false
}
