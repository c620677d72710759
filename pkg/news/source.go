package news

import (
	"context"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Source produces the ordered deck of news items to decide on.
type Source interface {
	Fetch(ctx context.Context) ([]types.DerivativeNews, error)
}

// StaticSource serves a fixed list.
type StaticSource struct {
	Items []types.DerivativeNews
}

// Fetch returns a copy of the items.
func (s StaticSource) Fetch(context.Context) ([]types.DerivativeNews, error) {
	return append([]types.DerivativeNews(nil), s.Items...), nil
}

// DemoItems is the deck served when no feed is configured.
func DemoItems() []types.DerivativeNews {
	return []types.DerivativeNews{
		{
			ID:      "demo-1",
			Title:   "Bank Indonesia Holds Rates as Rupiah Stabilises",
			Summary: "The central bank kept its benchmark rate unchanged and signalled room to ease next quarter as inflation cools.",
			Symbol:  "IDN",
			Source:  "MacroDesk",
			Time:    "2025-11-29 20:00 WIB",
		},
		{
			ID:      "demo-2",
			Title:   "NFP Beats Expectations, USD Rallies Across the Board",
			Summary: "The latest Non-Farm Payrolls report showed stronger-than-expected job growth, pushing the US dollar higher against major currencies.",
			Symbol:  "USA",
			Source:  "MacroDesk",
			Time:    "2025-11-29 19:30 WIB",
		},
		{
			ID:      "demo-3",
			Title:   "Singapore Exports Slip on Weaker Electronics Demand",
			Summary: "Non-oil domestic exports fell for a second month as semiconductor shipments to China softened.",
			Symbol:  "SGP",
			Source:  "Internal NewsFeed",
			Time:    "2025-11-29 18:45 WIB",
		},
	}
}
