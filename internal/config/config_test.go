package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PYTHON_SERVICE_URL", "http://forecaster:5000/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://forecaster:5000", cfg.PythonServiceURL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.ForecastCacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.ForecastTimeout)
	assert.Equal(t, 5*time.Second, cfg.MarketDataTimeout)
	assert.Equal(t, 10, cfg.MaxConcurrentFetches)
	assert.Equal(t, "*", cfg.AllowOrigins)
	assert.Equal(t, "memory", cfg.CacheBackend())
}

func TestLoadRequiresPythonService(t *testing.T) {
	t.Setenv("PYTHON_SERVICE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "PYTHON_SERVICE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PYTHON_SERVICE_URL", "http://forecaster:5000")
	t.Setenv("CACHE_TTL_MINUTES", "15")
	t.Setenv("FORECAST_CACHE_ENABLED", "false")
	t.Setenv("MARKET_DATA_TIMEOUT_SECONDS", "2")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FIRESTORE_PROJECT_ID", "stockcast")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.ForecastCacheEnabled)
	assert.Equal(t, 2*time.Second, cfg.MarketDataTimeout)
	assert.Equal(t, "redis", cfg.CacheBackend())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := map[string]string{
		"CACHE_TTL_MINUTES":      "soon",
		"MAX_CONCURRENT_FETCHES": "0",
		"FORECAST_CACHE_ENABLED": "maybe",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("PYTHON_SERVICE_URL", "http://forecaster:5000")
			t.Setenv(key, value)

			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
