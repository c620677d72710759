package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/contracts"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Mantle Sepolia defaults.
const (
	DefaultRPCURL  = "https://rpc.sepolia.mantle.xyz"
	DefaultChainID = 5003
)

// Config is the service configuration. It is read from an optional TOML file
// and then overridden by environment variables.
type Config struct {
	Chain struct {
		RPCURL     string `toml:"rpc_url"`
		ChainID    int64  `toml:"chain_id"`
		PrivateKey string `toml:"private_key"`
	} `toml:"chain"`

	Contracts struct {
		CountryRegistry string `toml:"country_registry"`
		CountryTrading  string `toml:"country_trading"`
		CollateralToken string `toml:"collateral_token"`
		LiquidityPool   string `toml:"liquidity_pool"`
	} `toml:"contracts"`

	Countries []types.Country `toml:"countries"`

	Trading struct {
		CollateralAmount   string `toml:"collateral_amount"` // human units, e.g. "10"
		CollateralDecimals int32  `toml:"collateral_decimals"`
	} `toml:"trading"`

	Market struct {
		RefreshSeconds int `toml:"refresh_seconds"`
	} `toml:"market"`

	News struct {
		FeedURL       string `toml:"feed_url"`
		OpenAIKey     string `toml:"openai_api_key"`
		OpenAIBaseURL string `toml:"openai_base_url"`
		OpenAIModel   string `toml:"openai_model"`
	} `toml:"news"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Address  string `toml:"address"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	Server struct {
		Addr            string `toml:"addr"`
		JWTSecret       string `toml:"jwt_secret"`
		TokenTTLMinutes int    `toml:"token_ttl_minutes"`
	} `toml:"server"`

	Swipe struct {
		ReducedMotion  bool    `toml:"reduced_motion"`
		ViewportWidth  float64 `toml:"viewport_width"`
		ExitTransition bool    `toml:"exit_transition"`
	} `toml:"swipe"`

	Storage struct {
		JournalPath         string `toml:"journal_path"`
		WALDir              string `toml:"wal_dir"`
		ClosedPositionsPath string `toml:"closed_positions_path"`
	} `toml:"storage"`
}

// Load reads .env (if present), then the TOML file named by NATION_CONFIG (if
// set), then environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  config: failed to load .env: %v", err)
	}
	return LoadFile(os.Getenv("NATION_CONFIG"))
}

// LoadFile is Load without the .env step. path may be empty.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) error {
	envString("RPC_URL", &c.Chain.RPCURL)
	envString("PRIVATE_KEY", &c.Chain.PrivateKey)
	envString("COUNTRY_REGISTRY_ADDRESS", &c.Contracts.CountryRegistry)
	envString("COUNTRY_TRADING_ADDRESS", &c.Contracts.CountryTrading)
	envString("COLLATERAL_TOKEN_ADDRESS", &c.Contracts.CollateralToken)
	envString("LIQUIDITY_POOL_ADDRESS", &c.Contracts.LiquidityPool)
	envString("COLLATERAL_AMOUNT", &c.Trading.CollateralAmount)
	envString("NEWS_FEED_URL", &c.News.FeedURL)
	envString("OPENAI_API_KEY", &c.News.OpenAIKey)
	envString("OPENAI_BASE_URL", &c.News.OpenAIBaseURL)
	envString("OPENAI_MODEL", &c.News.OpenAIModel)
	envString("REDIS_ADDRESS", &c.Redis.Address)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envString("JWT_SECRET", &c.Server.JWTSecret)
	envString("HTTP_ADDR", &c.Server.Addr)
	envString("JOURNAL_PATH", &c.Storage.JournalPath)
	envString("WAL_DIR", &c.Storage.WALDir)
	envString("CLOSED_POSITIONS_PATH", &c.Storage.ClosedPositionsPath)

	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: CHAIN_ID %q: %v", types.ErrInvalidConfig, v, err)
		}
		c.Chain.ChainID = id
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: REDIS_DB %q: %v", types.ErrInvalidConfig, v, err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: REDIS_ENABLED %q: %v", types.ErrInvalidConfig, v, err)
		}
		c.Redis.Enabled = enabled
	}

	if len(c.Countries) == 0 {
		c.Countries = types.DefaultCountries()
	}
	for i := range c.Countries {
		envString(strings.ToUpper(c.Countries[i].ID)+"_PRICE_FEED", &c.Countries[i].PriceFeed)
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(c *Config) {
	if c.Chain.RPCURL == "" {
		c.Chain.RPCURL = DefaultRPCURL
	}
	if c.Chain.ChainID == 0 {
		c.Chain.ChainID = DefaultChainID
	}
	if c.Trading.CollateralAmount == "" {
		c.Trading.CollateralAmount = "10"
	}
	if c.Trading.CollateralDecimals == 0 {
		c.Trading.CollateralDecimals = contracts.CollateralDecimals
	}
	if c.Market.RefreshSeconds <= 0 {
		c.Market.RefreshSeconds = 30
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.TokenTTLMinutes <= 0 {
		c.Server.TokenTTLMinutes = 12 * 60
	}
	if c.Server.JWTSecret == "" {
		c.Server.JWTSecret = uuid.NewString()
		log.Printf("⚠️  config: JWT_SECRET not set, using an ephemeral secret; sessions will not survive a restart")
	}
	if c.Swipe.ViewportWidth <= 0 {
		c.Swipe.ViewportWidth = 600
	}
	if c.Storage.JournalPath == "" {
		c.Storage.JournalPath = "nation-journal.db"
	}
	if c.Storage.WALDir == "" {
		c.Storage.WALDir = ".nation/wal"
	}
	if c.Storage.ClosedPositionsPath == "" {
		c.Storage.ClosedPositionsPath = ".nation/closed-positions.json"
	}
}

// Validate checks addresses and amounts.
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("%w: chain id must be positive", types.ErrInvalidConfig)
	}
	addresses := map[string]string{
		"COUNTRY_REGISTRY_ADDRESS": c.Contracts.CountryRegistry,
		"COUNTRY_TRADING_ADDRESS":  c.Contracts.CountryTrading,
		"COLLATERAL_TOKEN_ADDRESS": c.Contracts.CollateralToken,
		"LIQUIDITY_POOL_ADDRESS":   c.Contracts.LiquidityPool,
	}
	for name, addr := range addresses {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: %s is not a valid address: %q", types.ErrInvalidConfig, name, addr)
		}
	}
	if c.Chain.PrivateKey != "" && c.Contracts.CountryTrading == "" {
		return fmt.Errorf("%w: COUNTRY_TRADING_ADDRESS is required when PRIVATE_KEY is set", types.ErrInvalidConfig)
	}
	if _, err := contracts.ParseUnits(c.Trading.CollateralAmount, c.Trading.CollateralDecimals); err != nil {
		return fmt.Errorf("%w: COLLATERAL_AMOUNT: %v", types.ErrInvalidConfig, err)
	}
	seen := make(map[string]bool, len(c.Countries))
	for _, country := range c.Countries {
		if country.ID == "" || country.Symbol == "" {
			return fmt.Errorf("%w: country needs id and symbol: %+v", types.ErrInvalidConfig, country)
		}
		if seen[country.ID] {
			return fmt.Errorf("%w: duplicate country %s", types.ErrInvalidConfig, country.ID)
		}
		seen[country.ID] = true
	}
	return nil
}

// CollateralUnits returns the per-trade collateral in token base units.
func (c *Config) CollateralUnits() (*big.Int, error) {
	return contracts.ParseUnits(c.Trading.CollateralAmount, c.Trading.CollateralDecimals)
}

// RefreshInterval is the market refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Market.RefreshSeconds) * time.Second
}

// TokenTTL is the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Server.TokenTTLMinutes) * time.Minute
}

// HasChain reports whether a registry is configured to read prices from.
func (c *Config) HasChain() bool {
	return c.Contracts.CountryRegistry != ""
}

// CanTrade reports whether on-chain trading is configured.
func (c *Config) CanTrade() bool {
	return c.Chain.PrivateKey != "" && c.Contracts.CountryTrading != ""
}
