package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/NationIndexProtocol/nation-index-sdk/internal/config"
	"github.com/NationIndexProtocol/nation-index-sdk/internal/journal"
	"github.com/NationIndexProtocol/nation-index-sdk/internal/server"
	"github.com/NationIndexProtocol/nation-index-sdk/internal/trader"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/auth"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/cache"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/contracts"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/market"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/news"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/portfolio"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/version"
)

const walMaxAge = 7 * 24 * time.Hour

func main() {
	log.Println(version.Banner())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ Shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config) error {
	collateral, err := cfg.CollateralUnits()
	if err != nil {
		return err
	}

	store := cacheFor(ctx, cfg)
	defer store.Close()

	j, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	wal := trader.NewWAL(cfg.Storage.WALDir)

	deps := server.Deps{Journal: j}
	traderOpts := []trader.Option{
		trader.WithJournal(j),
		trader.WithWAL(wal),
		trader.WithCountries(cfg.Countries),
	}

	var (
		markets *market.Service
		trading trader.Trading
	)
	if cfg.HasChain() || cfg.CanTrade() {
		client, err := contracts.Dial(cfg.Chain.RPCURL, cfg.Chain.ChainID, cfg.Chain.PrivateKey)
		if err != nil {
			return err
		}
		defer client.Close()
		log.Printf("🌐 Connected to chain %d via %s", cfg.Chain.ChainID, cfg.Chain.RPCURL)

		if cfg.HasChain() {
			registry := contracts.NewCountryRegistry(client, common.HexToAddress(cfg.Contracts.CountryRegistry))
			markets = market.NewService(registry, cfg.Countries,
				market.WithCache(store),
				market.WithRefreshInterval(cfg.RefreshInterval()),
			)
			deps.Markets = markets
		}

		var token *contracts.ERC20Token
		if cfg.Contracts.CollateralToken != "" {
			token = contracts.NewERC20Token(client, common.HexToAddress(cfg.Contracts.CollateralToken))
		}
		if cfg.Contracts.LiquidityPool != "" {
			var collateralToken contracts.AllowanceToken
			if token != nil {
				collateralToken = token
			}
			deps.Pool = contracts.NewLiquidityPool(client, common.HexToAddress(cfg.Contracts.LiquidityPool), collateralToken)
		}

		if cfg.CanTrade() {
			trading = contracts.NewCountryTrading(client, common.HexToAddress(cfg.Contracts.CountryTrading))
			if token != nil {
				traderOpts = append(traderOpts, trader.WithAllowance(token, client.Address()))
			}
			log.Printf("✅ Trading enabled for %s", client.Address().Hex())
		}
	}
	if trading == nil {
		log.Println("⚠️  No signer configured, decisions are journaled only")
	}

	tr := trader.New(trading, collateral, traderOpts...)
	if _, err := tr.Recover(ctx); err != nil {
		log.Printf("⚠️  WAL recovery failed: %v", err)
	}
	defer tr.Wait()
	deps.Callbacks = tr.Callbacks()

	tracker := portfolio.NewTracker(portfolio.DefaultWallet(), portfolio.DefaultPriceBook(),
		portfolio.NewClosedStore(cfg.Storage.ClosedPositionsPath))
	deps.Portfolio = tracker

	deps.News = newsSource(cfg)
	deps.Issuer, err = auth.NewIssuer(cfg.Server.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	srv, err := server.New(deps, server.Options{
		Addr:           cfg.Server.Addr,
		ReducedMotion:  cfg.Swipe.ReducedMotion,
		ViewportWidth:  cfg.Swipe.ViewportWidth,
		ExitTransition: cfg.Swipe.ExitTransition,
		SessionTTL:     cfg.TokenTTL(),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sweepWAL(gctx, wal) })
	if markets != nil {
		g.Go(func() error { return markets.Run(gctx) })
		g.Go(func() error { return syncPrices(gctx, markets, tracker, cfg.RefreshInterval()) })
	}
	return g.Wait()
}

func cacheFor(ctx context.Context, cfg *config.Config) cache.Cache {
	if !cfg.Redis.Enabled {
		return cache.NoOpCache{}
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Printf("⚠️  Redis unavailable, continuing without cache: %v", err)
		return cache.NoOpCache{}
	}
	log.Printf("✅ Redis cache connected at %s", cfg.Redis.Address)
	return rc
}

func newsSource(cfg *config.Config) news.Source {
	var src news.Source = news.StaticSource{Items: news.DemoItems()}
	if cfg.News.FeedURL != "" {
		src = news.NewHTTPSource(cfg.News.FeedURL)
	}
	if cfg.News.OpenAIKey != "" {
		src = news.SummarizingSource{
			Source:     src,
			Summarizer: news.NewSummarizer(cfg.News.OpenAIKey, cfg.News.OpenAIBaseURL, cfg.News.OpenAIModel),
		}
	}
	return src
}

// syncPrices feeds live index prices into the portfolio valuation.
func syncPrices(ctx context.Context, markets *market.Service, tracker *portfolio.Tracker, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snapshot, err := markets.Markets(ctx)
			if err != nil {
				log.Printf("⚠️  price sync: %v", err)
				continue
			}
			prices := make(map[string]float64, len(snapshot))
			for _, m := range snapshot {
				prices[m.Symbol] = m.BasePrice
			}
			tracker.UpdatePrices(prices)
		}
	}
}

// sweepWAL drops orders whose receipt never arrived within walMaxAge.
func sweepWAL(ctx context.Context, wal *trader.WAL) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := wal.CleanupOld(walMaxAge)
			if err != nil {
				log.Printf("⚠️  WAL cleanup: %v", err)
			} else if n > 0 {
				log.Printf("🔄 Removed %d stale WAL entries", n)
			}
		}
	}
}
