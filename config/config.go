package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"indicatorEngine/internal/adapters/logger"
	"indicatorEngine/internal/app"
	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/indicatorconfig"
)

// Config holds all application configuration.
type Config struct {
	// Binance API. Keys are optional for public market data.
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Storage
	DBPath        string
	RedisAddr     string // empty selects the in-process cache
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// HTTP API
	HTTPAddr string

	// Logging
	LogLevel  zerolog.Level
	LogFormat string

	// Analysis defaults
	DefaultInterval     string
	DefaultPeriod       string
	DefaultPreset       string
	IndicatorConfigFile string // optional YAML file replacing DefaultPreset
	Workers             int

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	if (cfg.APIKey == "") != (cfg.SecretKey == "") {
		errs = append(errs, "BINANCE_API_KEY and BINANCE_API_SECRET must be set together")
	}

	// Storage
	cfg.DBPath = getEnv("DB_PATH", "./data/klines.db")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsIntRequired("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REDIS_DB: %v", err))
	} else if cfg.RedisDB < 0 {
		errs = append(errs, "REDIS_DB cannot be negative")
	}

	cacheTTLSeconds, err := getEnvAsIntRequired("CACHE_TTL_SECONDS", 900)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CACHE_TTL_SECONDS: %v", err))
	} else if cacheTTLSeconds <= 0 {
		errs = append(errs, "CACHE_TTL_SECONDS must be positive")
	}
	cfg.CacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	// HTTP API
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "json"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		errs = append(errs, "LOG_FORMAT must be json or console")
	}

	// Analysis defaults
	if interval, ok := domain.NormalizeInterval(getEnv("DEFAULT_INTERVAL", "1d")); ok {
		cfg.DefaultInterval = interval
	} else {
		errs = append(errs, fmt.Sprintf("DEFAULT_INTERVAL must be one of %s", strings.Join(domain.Intervals, ", ")))
	}
	cfg.DefaultPeriod = getEnv("DEFAULT_PERIOD", app.DefaultPeriod)
	if app.NormalizePeriod(cfg.DefaultPeriod) != strings.ToLower(cfg.DefaultPeriod) {
		errs = append(errs, fmt.Sprintf("DEFAULT_PERIOD must be one of %s", strings.Join(app.Periods(), ", ")))
	}
	cfg.DefaultPreset = getEnv("DEFAULT_PRESET", indicatorconfig.PresetComprehensive)
	if _, ok := indicatorconfig.LookupPreset(cfg.DefaultPreset); !ok {
		errs = append(errs, fmt.Sprintf("DEFAULT_PRESET must be one of %s", strings.Join(indicatorconfig.PresetNames(), ", ")))
	}
	cfg.IndicatorConfigFile = getEnv("INDICATOR_CONFIG_FILE", "")

	cfg.Workers, err = getEnvAsIntRequired("WORKERS", 4)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid WORKERS: %v", err))
	} else if cfg.Workers <= 0 {
		errs = append(errs, "WORKERS must be positive")
	}

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
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
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
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
