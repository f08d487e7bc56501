// Package core defines the repository ports and the small caching services shared by briefq components.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// SetTTL returns true if the key exists and the TTL was updated.
	SetTTL(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// SetIfNotExists atomically sets a key only if it is absent. Returns true if the key was set.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	Health(ctx context.Context) error
}

// NewsCacheConfig holds TTLs for the news caches.
type NewsCacheConfig struct {
	SeenTTL     time.Duration
	FireLockTTL time.Duration
}

// DefaultNewsCacheConfig returns the defaults used by the news worker and scheduler.
func DefaultNewsCacheConfig() NewsCacheConfig {
	return NewsCacheConfig{
		SeenTTL:     72 * time.Hour,
		FireLockTTL: 2 * time.Minute,
	}
}

// NewsCache remembers analysed article URLs and coordinates cron fires across replicas.
// It is a fast path in front of the news_analyses unique index, never the source of truth.
type NewsCache struct {
	cache CacheRepository
	cfg   NewsCacheConfig
}

// NewNewsCache creates a NewsCache. A nil cache yields a cache that never remembers anything.
func NewNewsCache(cache CacheRepository, cfg NewsCacheConfig) *NewsCache {
	def := DefaultNewsCacheConfig()
	if cfg.SeenTTL <= 0 {
		cfg.SeenTTL = def.SeenTTL
	}
	if cfg.FireLockTTL <= 0 {
		cfg.FireLockTTL = def.FireLockTTL
	}
	return &NewsCache{cache: cache, cfg: cfg}
}

// Seen reports whether url was recorded by MarkSeen and has not expired.
func (c *NewsCache) Seen(ctx context.Context, url string) (bool, error) {
	if c == nil || c.cache == nil || strings.TrimSpace(url) == "" {
		return false, nil
	}
	return c.cache.Exists(ctx, seenKey(url))
}

// MarkSeen records url as analysed.
func (c *NewsCache) MarkSeen(ctx context.Context, url string) error {
	if c == nil || c.cache == nil || strings.TrimSpace(url) == "" {
		return nil
	}
	return c.cache.Set(ctx, seenKey(url), []byte("1"), c.cfg.SeenTTL)
}

// AcquireFire claims the cron fire at the given minute. Only the first caller across replicas gets true.
// Without a cache every caller wins.
func (c *NewsCache) AcquireFire(ctx context.Context, at time.Time) (bool, error) {
	if c == nil || c.cache == nil {
		return true, nil
	}
	minute := at.UTC().Truncate(time.Minute).Unix() / 60
	key := "news:fire:" + strconv.FormatInt(minute, 10)
	return c.cache.SetIfNotExists(ctx, key, []byte(at.UTC().Format(time.RFC3339)), c.cfg.FireLockTTL)
}

func seenKey(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return "news:seen:" + hex.EncodeToString(sum[:])
}
