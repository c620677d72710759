package portfolio

import (
	"github.com/shopspring/decimal"
)

// Summary aggregates open holdings.
type Summary struct {
	Holdings       []Holding `json:"holdings"`
	Closed         []string  `json:"closed"`
	TotalValue     float64   `json:"total_value"`
	YesterdayValue float64   `json:"yesterday_value"`
	PnL24h         float64   `json:"pnl_24h"`
	PnL24hPct      float64   `json:"pnl_24h_pct"` // fraction
	Best           *Holding  `json:"best,omitempty"`
}

// Summarize values the holdings whose symbol is not closed. Yesterday's value is
// approximated by reversing each holding's 24h change.
func Summarize(holdings []Holding, closed []string) Summary {
	isClosed := make(map[string]bool, len(closed))
	for _, s := range closed {
		isClosed[s] = true
	}

	one := decimal.NewFromInt(1)
	total := decimal.Zero
	yesterday := decimal.Zero
	open := make([]Holding, 0, len(holdings))
	var best *Holding

	for _, h := range holdings {
		if isClosed[h.Symbol] {
			continue
		}
		open = append(open, h)

		value := decimal.NewFromFloat(h.Amount).Mul(decimal.NewFromFloat(h.Price))
		total = total.Add(value)

		// a -100% move leaves nothing to reverse from
		divisor := one.Add(decimal.NewFromFloat(h.Change24hPct))
		if divisor.IsPositive() {
			yesterday = yesterday.Add(value.Div(divisor))
		}
	}

	for i := range open {
		if best == nil || open[i].Change24hPct > best.Change24hPct {
			best = &open[i]
		}
	}

	pnl := total.Sub(yesterday)
	pnlPct := decimal.Zero
	if !yesterday.IsZero() {
		pnlPct = pnl.Div(yesterday)
	}

	return Summary{
		Holdings:       open,
		Closed:         append([]string{}, closed...),
		TotalValue:     total.Round(2).InexactFloat64(),
		YesterdayValue: yesterday.Round(2).InexactFloat64(),
		PnL24h:         pnl.Round(2).InexactFloat64(),
		PnL24hPct:      pnlPct.Round(6).InexactFloat64(),
		Best:           best,
	}
}
