package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"stockcast-go-api/internal/config"
	"stockcast-go-api/internal/models"
)

// Cache collections
const (
	tickersCollection   = "tickers"
	forecastsCollection = "forecasts"
)

// Generic in-memory cache with type safety
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*cacheItem[V]
	ttl   time.Duration
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]*cacheItem[V]),
		ttl:   ttl,
	}

	// Start cleanup goroutine
	go c.cleanup()

	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Clear drops every entry
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*cacheItem[V])
}

// Len counts entries, expired ones included until the next cleanup
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, item := range c.items {
			if now.After(item.expiration) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// RemoteStore is a shared cache layer behind the in-memory one. Values are
// JSON documents.
type RemoteStore interface {
	Name() string
	Get(ctx context.Context, collection, key string) ([]byte, bool, error)
	Set(ctx context.Context, collection, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, collection string) error
	Ping(ctx context.Context) error
	Close() error
}

// CacheService handles in-memory caching with an optional Redis or Firestore layer
type CacheService struct {
	remote        RemoteStore
	ttl           time.Duration
	tickerCache   *Cache[string, *models.StockMetadata]
	forecastCache *Cache[string, models.ForecastResult]
}

func NewCacheService(cfg *config.Config) *CacheService {
	ctx := context.Background()

	var remote RemoteStore
	var err error
	switch cfg.CacheBackend() {
	case "redis":
		remote, err = newRedisStore(ctx, cfg.RedisURL)
	case "firestore":
		remote, err = newFirestoreStore(ctx, cfg.FirestoreProject)
	}
	if err != nil {
		// Log error but don't fail - fallback to in-memory only
		log.Printf("[cache] failed to initialize %s backend: %v", cfg.CacheBackend(), err)
		remote = nil
	}

	return NewCacheServiceWithStore(cfg.CacheTTL, remote)
}

// NewCacheServiceWithStore builds a cache on top of remote, which may be nil
func NewCacheServiceWithStore(ttl time.Duration, remote RemoteStore) *CacheService {
	return &CacheService{
		remote:        remote,
		ttl:           ttl,
		tickerCache:   NewCache[string, *models.StockMetadata](ttl),
		forecastCache: NewCache[string, models.ForecastResult](ttl),
	}
}

// Backend names the remote layer, "memory" when there is none
func (s *CacheService) Backend() string {
	if s.remote == nil {
		return "memory"
	}
	return s.remote.Name()
}

// GetStockMetadata retrieves ticker metadata from cache
func (s *CacheService) GetStockMetadata(ctx context.Context, symbol string) (*models.StockMetadata, bool) {
	if data, found := s.tickerCache.Get(symbol); found {
		return data, true
	}

	var data models.StockMetadata
	if !s.getRemote(ctx, tickersCollection, symbol, &data) {
		return nil, false
	}
	s.tickerCache.Set(symbol, &data)
	return &data, true
}

// SetStockMetadata stores ticker metadata in cache
func (s *CacheService) SetStockMetadata(ctx context.Context, symbol string, data *models.StockMetadata) {
	s.tickerCache.Set(symbol, data)
	s.setRemote(ctx, tickersCollection, symbol, data)
}

// GetForecast retrieves a forecast result from cache
func (s *CacheService) GetForecast(ctx context.Context, key string) (models.ForecastResult, bool) {
	if result, found := s.forecastCache.Get(key); found {
		return result, true
	}

	var result json.RawMessage
	if !s.getRemote(ctx, forecastsCollection, key, &result) {
		return nil, false
	}
	s.forecastCache.Set(key, result)
	return result, true
}

// SetForecast stores a forecast result in cache
func (s *CacheService) SetForecast(ctx context.Context, key string, result models.ForecastResult) {
	s.forecastCache.Set(key, result)
	s.setRemote(ctx, forecastsCollection, key, result)
}

// Refresh clears every cache layer
func (s *CacheService) Refresh(ctx context.Context) error {
	s.tickerCache.Clear()
	s.forecastCache.Clear()

	if s.remote == nil {
		return nil
	}
	for _, collection := range []string{tickersCollection, forecastsCollection} {
		if err := s.remote.Clear(ctx, collection); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the remote layer
func (s *CacheService) Ping(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Ping(ctx)
}

// Close closes the remote client
func (s *CacheService) Close() error {
	if s.remote != nil {
		return s.remote.Close()
	}
	return nil
}

func (s *CacheService) getRemote(ctx context.Context, collection, key string, dst any) bool {
	if s.remote == nil {
		return false
	}

	raw, found, err := s.remote.Get(ctx, collection, key)
	if err != nil {
		log.Printf("[cache] %s get %s/%s: %v", s.remote.Name(), collection, key, err)
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("[cache] %s decode %s/%s: %v", s.remote.Name(), collection, key, err)
		return false
	}
	return true
}

func (s *CacheService) setRemote(ctx context.Context, collection, key string, value any) {
	if s.remote == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[cache] encode %s/%s: %v", collection, key, err)
		return
	}
	if err := s.remote.Set(ctx, collection, key, raw, s.ttl); err != nil {
		log.Printf("[cache] %s set %s/%s: %v", s.remote.Name(), collection, key, err)
	}
}
