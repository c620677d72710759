package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Tab selects a markets list view.
type Tab string

const (
	TabAll     Tab = "all"
	TabGainers Tab = "gainers"
	TabLosers  Tab = "losers"
)

// ParseTab validates s case-insensitively. An empty string means all.
func ParseTab(s string) (Tab, error) {
	switch tab := Tab(strings.ToLower(s)); tab {
	case "":
		return TabAll, nil
	case TabAll, TabGainers, TabLosers:
		return tab, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Filter returns the markets shown on tab whose name, symbol or id contains
// query, ignoring case. Gainers are sorted by 24h change descending, losers
// ascending; all keeps the input order. markets is not modified.
func Filter(markets []types.MarketData, tab Tab, query string) []types.MarketData {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]types.MarketData, 0, len(markets))
	for _, m := range markets {
		switch {
		case tab == TabGainers && m.Change24h <= 0:
			continue
		case tab == TabLosers && m.Change24h >= 0:
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Symbol), query) &&
			!strings.Contains(strings.ToLower(m.ID), query) {
			continue
		}
		out = append(out, m)
	}

	switch tab {
	case TabGainers:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Change24h > out[j].Change24h })
	case TabLosers:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Change24h < out[j].Change24h })
	}
	return out
}
