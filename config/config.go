package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rangepulse/internal/adapters/logger" // Import the logger package for LogLevel
	"rangepulse/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API (optional: the scanner only uses public endpoints)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Telegram delivery
	TelegramToken string
	SeedChatIDs   []int64 // Chat IDs registered as subscribers on startup

	// Universe screening
	MinVolumeUSDT float64 // Minimum 24h quote volume to include a pair
	MaxUSDTPairs  int     // Cap on the number of scanned pairs
	PairRefresh   time.Duration

	// Scanning
	EntryInterval  string // Candle interval driving detection (e.g., "5m")
	BufferCapacity int    // Max candles retained per symbol
	PreloadLimit   int    // Historical candles fetched per symbol at startup

	// Signal gating
	MinTierToSend   domain.Tier
	CooldownSeconds int
	MinRRToTP2      float64

	// Strategy Parameters
	StrategyMode           string
	MinRangePct            float64
	MaxRangeWidthPct       float64
	SweepPenetrationMinPct float64
	DisplacementFactor     float64
	RR1                    float64
	RR2                    float64
	RR3                    float64

	// Higher-timeframe filter
	UseHTFFilter bool
	HTFCacheTTL  time.Duration

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter

	// Connection Settings
	ReconnectDelay time.Duration
	RecvTimeout    time.Duration // Max silence on the stream before reconnecting
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Telegram
	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	if cfg.TelegramToken == "" {
		errs = append(errs, "TELEGRAM_TOKEN must be set")
	}
	seedIDs, err := parseChatIDs(getEnv("TELEGRAM_CHAT_IDS", ""))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TELEGRAM_CHAT_IDS: %v", err))
	}
	cfg.SeedChatIDs = seedIDs

	// Universe screening
	cfg.MinVolumeUSDT = getEnvAsFloat("MIN_VOLUME_USDT", 1_000_000)
	if cfg.MinVolumeUSDT < 0 {
		errs = append(errs, "MIN_VOLUME_USDT cannot be negative")
	}
	cfg.MaxUSDTPairs = getEnvAsInt("MAX_USDT_PAIRS", 1000)
	if cfg.MaxUSDTPairs <= 0 {
		errs = append(errs, "MAX_USDT_PAIRS must be positive")
	}
	refreshHours := getEnvAsInt("PAIR_REFRESH_INTERVAL_HOURS", 24)
	if refreshHours <= 0 {
		errs = append(errs, "PAIR_REFRESH_INTERVAL_HOURS must be positive")
	}
	cfg.PairRefresh = time.Duration(refreshHours) * time.Hour

	// Scanning
	cfg.EntryInterval = getEnv("ENTRY_INTERVAL", "5m")
	cfg.BufferCapacity = getEnvAsInt("BUFFER_CAPACITY", 150)
	if cfg.BufferCapacity <= 0 {
		errs = append(errs, "BUFFER_CAPACITY must be positive")
	}
	cfg.PreloadLimit = getEnvAsInt("PRELOAD_LIMIT", 60)
	if cfg.PreloadLimit <= 0 {
		errs = append(errs, "PRELOAD_LIMIT must be positive")
	} else if cfg.PreloadLimit > cfg.BufferCapacity && cfg.BufferCapacity > 0 {
		errs = append(errs, "PRELOAD_LIMIT cannot exceed BUFFER_CAPACITY")
	}

	// Signal gating
	cfg.MinTierToSend = domain.ParseTier(getEnv("MIN_TIER_TO_SEND", "A"))
	if cfg.MinTierToSend == domain.TierNone {
		errs = append(errs, "MIN_TIER_TO_SEND must be one of B, A, A+")
	}
	cfg.CooldownSeconds = getEnvAsInt("SIGNAL_COOLDOWN_SECONDS", 1800)
	if cfg.CooldownSeconds < 0 {
		errs = append(errs, "SIGNAL_COOLDOWN_SECONDS cannot be negative")
	}
	cfg.MinRRToTP2 = getEnvAsFloat("MIN_RR_TP2", 1.5)
	if cfg.MinRRToTP2 <= 0 {
		errs = append(errs, "MIN_RR_TP2 must be positive")
	}

	// Strategy Parameters (using defaults if not set)
	cfg.StrategyMode = getEnv("STRATEGY_MODE", "fakeout")
	cfg.MinRangePct = getEnvAsFloat("RANGE_MIN_RANGE_PCT", 0.3)
	cfg.MaxRangeWidthPct = getEnvAsFloat("RANGE_MAX_WIDTH_PCT", 1.2)
	cfg.SweepPenetrationMinPct = getEnvAsFloat("SWEEP_PENETRATION_MIN_PCT", 0.05)
	cfg.DisplacementFactor = getEnvAsFloat("DISPLACEMENT_FACTOR", 1.6)
	if cfg.MinRangePct <= 0 || cfg.MaxRangeWidthPct <= 0 {
		errs = append(errs, "range width parameters must be positive")
	}
	if cfg.MinRangePct >= cfg.MaxRangeWidthPct {
		errs = append(errs, "RANGE_MIN_RANGE_PCT must be less than RANGE_MAX_WIDTH_PCT")
	}
	if cfg.DisplacementFactor <= 1.0 {
		errs = append(errs, "DISPLACEMENT_FACTOR must be greater than 1.0")
	}

	cfg.RR1 = getEnvAsFloat("RR1", 1.2)
	cfg.RR2 = getEnvAsFloat("RR2", 1.8)
	cfg.RR3 = getEnvAsFloat("RR3", 3.0)
	if cfg.RR1 <= 0 || cfg.RR2 <= 0 || cfg.RR3 <= 0 {
		errs = append(errs, "RR1, RR2 and RR3 must be positive")
	}
	if !(cfg.RR1 < cfg.RR2 && cfg.RR2 < cfg.RR3) {
		errs = append(errs, "risk multiples must be strictly increasing (RR1 < RR2 < RR3)")
	}

	// Higher-timeframe filter
	cfg.UseHTFFilter = getEnvAsBool("USE_HTF_FILTER", true)
	ttlMinutes := getEnvAsInt("HTF_CACHE_TTL_MINUTES", 10)
	if ttlMinutes <= 0 {
		errs = append(errs, "HTF_CACHE_TTL_MINUTES must be positive")
	}
	cfg.HTFCacheTTL = time.Duration(ttlMinutes) * time.Minute

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/rangepulse.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	recvTimeoutSeconds := getEnvAsInt("RECV_TIMEOUT_SECONDS", 60)
	if recvTimeoutSeconds <= 0 {
		errs = append(errs, "RECV_TIMEOUT_SECONDS must be positive")
	}
	cfg.RecvTimeout = time.Duration(recvTimeoutSeconds) * time.Second

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseChatIDs splits a comma-separated list of Telegram chat IDs.
func parseChatIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID '%s': %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
