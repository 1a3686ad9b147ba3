package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/usecase"
)

// CachedProvider answers from memory, then the shared cache, then next.
// Cache failures are logged and fall through to next.
type CachedProvider struct {
	next    usecase.RateProvider
	cache   usecase.Cache
	logger  zerolog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	mu  sync.RWMutex
	mem map[string]memEntry
}

type memEntry struct {
	rate     decimal.Decimal
	cachedAt time.Time
}

// NewCachedProvider creates a CachedProvider. cache may be nil for memory-only caching.
func NewCachedProvider(next usecase.RateProvider, cache usecase.Cache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &CachedProvider{
		next:    next,
		cache:   cache,
		logger:  logger,
		metrics: m,
		ttl:     ttl,
		mem:     make(map[string]memEntry),
	}
}

// Rate returns the cached rate for the pair, fetching and caching it on a miss.
func (c *CachedProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := cacheKey(from, to)

	if rate, ok := c.fromMemory(key); ok {
		c.observe("memory")
		return rate, nil
	}

	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			if rate, perr := decimal.NewFromString(string(data)); perr == nil {
				c.observe("cache")
				c.remember(key, rate)
				return rate, nil
			}
		}
	}

	rate, err := c.next.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	c.remember(key, rate)
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, []byte(rate.String()), c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache exchange rate")
		}
	}

	return rate, nil
}

func (c *CachedProvider) fromMemory(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.mem[key]
	if !ok || time.Since(entry.cachedAt) > c.ttl {
		return decimal.Zero, false
	}
	return entry.rate, true
}

func (c *CachedProvider) remember(key string, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = memEntry{rate: rate, cachedAt: time.Now()}
}

func (c *CachedProvider) observe(source string) {
	if c.metrics != nil {
		c.metrics.RateSources.WithLabelValues(source).Inc()
	}
}

func cacheKey(from, to string) string {
	return fmt.Sprintf("rate:%s:%s", from, to)
}
