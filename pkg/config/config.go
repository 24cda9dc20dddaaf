package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/polycopy/copytrader/internal/sizing"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Wallets
	TrackedAddresses []string
	ProxyWallet      string
	PrivateKey       string

	// Polymarket API
	RTDSWSURL     string
	CLOBHTTPURL   string
	DataAPIURL    string
	PolygonRPC    string
	USDCContract  string
	APIKey        string
	APISecret     string
	APIPassphrase string
	SignatureType int

	// Copy strategy
	Strategy sizing.Config

	// Stream ingestion
	MaxTradeAge             time.Duration
	ReconnectBaseDelay      time.Duration
	ReconnectCounterCap     int
	MaxReconnectAttempts    int
	PositionRefreshInterval time.Duration

	// Execution
	ExecutionMode    string // "paper" or "live"
	RetryLimit       int
	OrderExpiry      time.Duration
	ExecutionBackoff time.Duration

	// HTTP fetch
	HTTPTimeout    time.Duration
	HTTPRetryLimit int

	// Auto-claim
	AutoClaimEnabled  bool
	AutoClaimInterval time.Duration

	// Take-profit / stop-loss (0 = disabled)
	TakeProfitPercent float64
	StopLossPercent   float64
	TPSLCheckInterval time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults
// and validates it. Any validation failure is fatal before trading begins.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		TrackedAddresses: splitList(os.Getenv("TRACKED_ADDRESSES")),
		ProxyWallet:      os.Getenv("PROXY_WALLET"),
		PrivateKey:       os.Getenv("POLYMARKET_PRIVATE_KEY"),

		RTDSWSURL:     getEnvOrDefault("RTDS_WS_URL", "wss://ws-live-data.polymarket.com"),
		CLOBHTTPURL:   getEnvOrDefault("CLOB_HTTP_URL", "https://clob.polymarket.com"),
		DataAPIURL:    getEnvOrDefault("DATA_API_URL", "https://data-api.polymarket.com"),
		PolygonRPC:    getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),
		USDCContract:  getEnvOrDefault("USDC_CONTRACT_ADDRESS", "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"),
		APIKey:        os.Getenv("POLYMARKET_API_KEY"),
		APISecret:     os.Getenv("POLYMARKET_SECRET"),
		APIPassphrase: os.Getenv("POLYMARKET_PASSPHRASE"),
		SignatureType: getIntOrDefault("SIGNATURE_TYPE", 0),

		MaxTradeAge:             getDurationOrDefault("MAX_TRADE_AGE", time.Hour),
		ReconnectBaseDelay:      getDurationOrDefault("RECONNECT_BASE_DELAY", 5*time.Second),
		ReconnectCounterCap:     getIntOrDefault("RECONNECT_COUNTER_CAP", 5),
		MaxReconnectAttempts:    getIntOrDefault("MAX_RECONNECT_ATTEMPTS", 10),
		PositionRefreshInterval: getDurationOrDefault("POSITION_REFRESH_INTERVAL", 30*time.Second),

		ExecutionMode:    getEnvOrDefault("EXECUTION_MODE", "paper"),
		RetryLimit:       getIntOrDefault("RETRY_LIMIT", 3),
		OrderExpiry:      getDurationOrDefault("ORDER_EXPIRY", 90*time.Second),
		ExecutionBackoff: getDurationOrDefault("EXECUTION_BACKOFF", time.Second),

		HTTPTimeout:    getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
		HTTPRetryLimit: getIntOrDefault("HTTP_RETRY_LIMIT", 3),

		AutoClaimEnabled:  getBoolOrDefault("AUTO_CLAIM_ENABLED", false),
		AutoClaimInterval: getDurationOrDefault("AUTO_CLAIM_INTERVAL", 30*time.Minute),

		TakeProfitPercent: getFloat64OrDefault("TAKE_PROFIT_PERCENT", 0),
		StopLossPercent:   getFloat64OrDefault("STOP_LOSS_PERCENT", 0),
		TPSLCheckInterval: getDurationOrDefault("TPSL_CHECK_INTERVAL", time.Minute),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "copytrader"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "copytrader"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "copytrader"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	strategy, err := loadStrategyFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load copy strategy: %w", err)
	}
	cfg.Strategy = *strategy

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadStrategyFromEnv() (*sizing.Config, error) {
	strategy, err := sizing.ParseStrategy(getEnvOrDefault("COPY_STRATEGY", "PERCENTAGE"))
	if err != nil {
		return nil, err
	}

	tiers, err := sizing.ParseTiers(os.Getenv("TIERED_MULTIPLIERS"))
	if err != nil {
		return nil, fmt.Errorf("parse TIERED_MULTIPLIERS: %w", err)
	}

	return &sizing.Config{
		Strategy:             strategy,
		CopySize:             getFloat64OrDefault("COPY_SIZE", 10),
		AdaptiveMinPercent:   getFloat64OrDefault("ADAPTIVE_MIN_PERCENT", 0),
		AdaptiveMaxPercent:   getFloat64OrDefault("ADAPTIVE_MAX_PERCENT", 0),
		AdaptiveThresholdUSD: getFloat64OrDefault("ADAPTIVE_THRESHOLD_USD", 500),
		Tiers:                tiers,
		SingleMultiplier:     getFloat64OrDefault("TRADE_MULTIPLIER", 0),
		MinOrderSizeUSD:      getFloat64OrDefault("MIN_ORDER_SIZE_USD", 1),
		MaxOrderSizeUSD:      getFloat64OrDefault("MAX_ORDER_SIZE_USD", 100),
		MaxPositionSizeUSD:   getFloat64OrDefault("MAX_POSITION_SIZE_USD", 0),
		MaxDailyVolumeUSD:    getFloat64OrDefault("MAX_DAILY_VOLUME_USD", 0),
	}, nil
}

var ethAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if len(c.TrackedAddresses) == 0 {
		return fmt.Errorf("TRACKED_ADDRESSES cannot be empty")
	}
	for _, addr := range c.TrackedAddresses {
		if !ethAddressRe.MatchString(addr) {
			return fmt.Errorf("invalid tracked address %q: expected 0x followed by 40 hex characters", addr)
		}
	}

	if c.ProxyWallet == "" {
		return fmt.Errorf("PROXY_WALLET cannot be empty")
	}
	if !ethAddressRe.MatchString(c.ProxyWallet) {
		return fmt.Errorf("invalid PROXY_WALLET %q: expected 0x followed by 40 hex characters", c.ProxyWallet)
	}
	if !ethAddressRe.MatchString(c.USDCContract) {
		return fmt.Errorf("invalid USDC_CONTRACT_ADDRESS %q", c.USDCContract)
	}

	if c.RTDSWSURL == "" {
		return fmt.Errorf("RTDS_WS_URL cannot be empty")
	}
	if c.CLOBHTTPURL == "" {
		return fmt.Errorf("CLOB_HTTP_URL cannot be empty")
	}
	if c.DataAPIURL == "" {
		return fmt.Errorf("DATA_API_URL cannot be empty")
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}
	if c.ExecutionMode == "live" && c.PrivateKey == "" {
		return fmt.Errorf("POLYMARKET_PRIVATE_KEY is required for live execution")
	}

	if c.RetryLimit < 1 || c.RetryLimit > 10 {
		return fmt.Errorf("RETRY_LIMIT must be between 1 and 10, got %d", c.RetryLimit)
	}
	if c.MaxReconnectAttempts < 1 {
		return fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be positive, got %d", c.MaxReconnectAttempts)
	}
	if c.ReconnectCounterCap < 1 {
		return fmt.Errorf("RECONNECT_COUNTER_CAP must be positive, got %d", c.ReconnectCounterCap)
	}
	if c.MaxTradeAge <= 0 {
		return fmt.Errorf("MAX_TRADE_AGE must be positive, got %s", c.MaxTradeAge)
	}
	if c.PositionRefreshInterval <= 0 {
		return fmt.Errorf("POSITION_REFRESH_INTERVAL must be positive, got %s", c.PositionRefreshInterval)
	}

	if c.TakeProfitPercent < 0 {
		return fmt.Errorf("TAKE_PROFIT_PERCENT must be >= 0, got %g", c.TakeProfitPercent)
	}
	if c.StopLossPercent < 0 {
		return fmt.Errorf("STOP_LOSS_PERCENT must be >= 0, got %g", c.StopLossPercent)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	err := c.Strategy.Validate()
	if err != nil {
		return fmt.Errorf("copy strategy: %w", err)
	}

	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
