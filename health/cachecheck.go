package health

import (
	"context"

	"github.com/jonwraymond/firemcp/doccache"
)

// CacheChecker reports the document cache's occupancy and hit ratio. The
// cache cannot fail, so the check never goes unhealthy; a full cache is
// reported as degraded so operators notice sizing pressure.
type CacheChecker struct {
	cache *doccache.Cache
}

// NewCacheChecker creates a cache checker.
func NewCacheChecker(cache *doccache.Cache) *CacheChecker {
	return &CacheChecker{cache: cache}
}

// Name returns "cache".
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check reads the cache statistics.
func (c *CacheChecker) Check(_ context.Context) Result {
	stats := c.cache.Stats()
	details := map[string]any{
		"size":      stats.Size,
		"max_size":  stats.MaxSize,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"hit_ratio": stats.HitRatio,
	}

	if stats.MaxSize > 0 && stats.Size >= stats.MaxSize {
		return Degraded("cache at capacity").WithDetails(details)
	}
	return Healthy("cache ok").WithDetails(details)
}

var _ Checker = (*CacheChecker)(nil)
