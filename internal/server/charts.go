package server

import (
	"math/rand"
	"sync"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/market"
)

// chartCache keeps one rolling synthetic series per symbol. Each request
// extends it by one point.
type chartCache struct {
	mu     sync.Mutex
	rng    *rand.Rand
	series map[string][]market.Point
}

func newChartCache(seed int64) *chartCache {
	return &chartCache{
		rng:    rand.New(rand.NewSource(seed)),
		series: map[string][]market.Point{},
	}
}

func (c *chartCache) next(symbol string, basePrice float64, now time.Time) []market.Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	series, ok := c.series[symbol]
	if !ok {
		series = market.GenerateBaseSeries(basePrice, market.DefaultPoints, now, c.rng)
	} else {
		series = market.Extend(series, market.DefaultPoints, c.rng)
	}
	c.series[symbol] = series
	return series
}
