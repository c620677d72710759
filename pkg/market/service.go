package market

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/cache"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/contracts"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

const (
	// DefaultRefreshInterval is how often Run re-reads the registry.
	DefaultRefreshInterval = 30 * time.Second

	cacheKey = "markets"
)

// Registry reads country index prices. Satisfied by *contracts.CountryRegistry.
type Registry interface {
	CountryPrice(ctx context.Context, countryID string) (float64, error)
	IsCountryActive(ctx context.Context, countryID string) (bool, error)
}

// Service keeps the latest market snapshot for the configured countries.
type Service struct {
	registry  Registry
	countries []types.Country
	cache     cache.Cache
	interval  time.Duration

	mu        sync.RWMutex
	rng       *rand.Rand
	markets   []types.MarketData
	updatedAt time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache shares snapshots through c.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRand sets the source for the synthetic 24h change and volume.
func WithRand(r *rand.Rand) ServiceOption {
	return func(s *Service) { s.rng = r }
}

// NewService creates a market service.
func NewService(registry Registry, countries []types.Country, opts ...ServiceOption) *Service {
	s := &Service{
		registry:  registry,
		countries: countries,
		cache:     cache.NoOpCache{},
		interval:  DefaultRefreshInterval,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch reads every country concurrently. A country that fails is logged and
// left out of the snapshot; Fetch only fails when all of them do.
func (s *Service) Fetch(ctx context.Context) ([]types.MarketData, error) {
	results := make([]*types.MarketData, len(s.countries))

	g, gctx := errgroup.WithContext(ctx)
	for i, country := range s.countries {
		i, country := i, country
		g.Go(func() error {
			m, err := s.fetchOne(gctx, country)
			if err != nil {
				log.Printf("⚠️  market: failed to fetch %s: %v", country.ID, err)
				return nil
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	markets := make([]types.MarketData, 0, len(results))
	s.mu.Lock()
	for _, m := range results {
		if m == nil {
			continue
		}
		// The registry only exposes the index price, so 24h stats are mocked.
		m.Change24h = (s.rng.Float64() - 0.5) * 5
		m.Volume24h = s.rng.Int63n(5_000_000)
		markets = append(markets, *m)
	}
	if len(markets) == 0 && len(s.countries) > 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no market could be fetched", types.ErrContractError)
	}
	s.markets = markets
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if err := s.cache.Set(ctx, cacheKey, markets, s.interval); err != nil {
		log.Printf("⚠️  market: failed to cache snapshot: %v", err)
	}
	return markets, nil
}

func (s *Service) fetchOne(ctx context.Context, country types.Country) (*types.MarketData, error) {
	price, err := s.registry.CountryPrice(ctx, country.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.registry.IsCountryActive(ctx, country.ID)
	if err != nil {
		return nil, err
	}
	return &types.MarketData{
		ID:          country.ID,
		Name:        country.Name,
		Symbol:      country.Symbol,
		BasePrice:   price,
		IsActive:    active,
		CountryCode: contracts.CountryCode(country.ID).Hex(),
		PriceFeed:   country.PriceFeed,
	}, nil
}

// Markets returns the latest snapshot. A stale local snapshot is refreshed from
// the cache first and from the registry last.
func (s *Service) Markets(ctx context.Context) ([]types.MarketData, error) {
	s.mu.RLock()
	fresh := s.markets != nil && time.Since(s.updatedAt) < s.interval
	markets := append([]types.MarketData(nil), s.markets...)
	s.mu.RUnlock()
	if fresh {
		return markets, nil
	}

	var cached []types.MarketData
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("⚠️  market: cache read failed: %v", err)
	}
	if found {
		return cached, nil
	}
	return s.Fetch(ctx)
}

// Market returns one market by country id or symbol.
func (s *Service) Market(ctx context.Context, idOrSymbol string) (types.MarketData, error) {
	markets, err := s.Markets(ctx)
	if err != nil {
		return types.MarketData{}, err
	}
	for _, m := range markets {
		if m.ID == idOrSymbol || m.Symbol == idOrSymbol {
			return m, nil
		}
	}
	return types.MarketData{}, fmt.Errorf("%w: %s", types.ErrCountryNotFound, idOrSymbol)
}

// Run fetches immediately and then on every refresh interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.Fetch(ctx); err != nil {
		log.Printf("⚠️  market: initial fetch failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Fetch(ctx); err != nil {
				log.Printf("⚠️  market: refresh failed: %v", err)
			}
		}
	}
}
