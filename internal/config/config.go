package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 string
	Environment          string
	PythonServiceURL     string
	AlphaVantageKey      string
	FirestoreProject     string
	RedisURL             string
	CacheTTL             time.Duration
	ForecastCacheEnabled bool
	ForecastTimeout      time.Duration
	MarketDataTimeout    time.Duration
	MaxConcurrentFetches int
	RateLimitPerMinute   int
	AllowOrigins         string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		PythonServiceURL: strings.TrimRight(getEnv("PYTHON_SERVICE_URL", ""), "/"),
		AlphaVantageKey:  getEnv("ALPHA_VANTAGE_KEY", ""),
		FirestoreProject: getEnv("FIRESTORE_PROJECT_ID", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		AllowOrigins:     getEnv("CORS_ALLOW_ORIGINS", "*"),
	}

	var err error
	if cfg.CacheTTL, err = getEnvMinutes("CACHE_TTL_MINUTES", 60); err != nil {
		return nil, err
	}
	if cfg.ForecastCacheEnabled, err = getEnvBool("FORECAST_CACHE_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.ForecastTimeout, err = getEnvSeconds("FORECAST_TIMEOUT_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.MarketDataTimeout, err = getEnvSeconds("MARKET_DATA_TIMEOUT_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentFetches, err = getEnvInt("MAX_CONCURRENT_FETCHES", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	if cfg.PythonServiceURL == "" {
		return nil, fmt.Errorf("PYTHON_SERVICE_URL is required")
	}
	if cfg.MaxConcurrentFetches < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_FETCHES must be at least 1")
	}

	if cfg.AlphaVantageKey == "" {
		log.Println("[config] ALPHA_VANTAGE_KEY not set, using Yahoo Finance only")
	}
	if cfg.RedisURL != "" && cfg.FirestoreProject != "" {
		log.Println("[config] both REDIS_URL and FIRESTORE_PROJECT_ID set, Redis wins")
	}

	return cfg, nil
}

// CacheBackend names the remote cache layer in use
func (c *Config) CacheBackend() string {
	switch {
	case c.RedisURL != "":
		return "redis"
	case c.FirestoreProject != "":
		return "firestore"
	default:
		return "memory"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	n, err := getEnvInt(key, defaultValue)
	return time.Duration(n) * time.Second, err
}

func getEnvMinutes(key string, defaultValue int) (time.Duration, error) {
	n, err := getEnvInt(key, defaultValue)
	return time.Duration(n) * time.Minute, err
}
