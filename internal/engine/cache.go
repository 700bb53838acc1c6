package engine

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// In-memory TTL cache for resolved uploads channels. Keys are hashed, so raw
// bearer tokens never appear in cache keys.
var channelCache *memoryCache

// Cache metrics — atomic counters for thread-safe access.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type memoryCache struct {
	l1              sync.Map // key → *cacheEntry
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
}

type cacheEntry struct {
	data      string
	expiresAt time.Time
}

// InitCache sets up the channel-resolution cache. Call after Init().
func InitCache(ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &memoryCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval}
	channelCache = c
	go c.cleanupLoop()
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("mt:%x", hash[:12]) // 24-char hex prefix
}

// CacheGet returns the cached value for key, if present and fresh.
func CacheGet(key string) (string, bool) {
	if channelCache == nil {
		cacheMisses.Add(1)
		return "", false
	}
	if val, ok := channelCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			cacheHits.Add(1)
			return entry.data, true
		}
		channelCache.l1.Delete(key) // expired
	}
	cacheMisses.Add(1)
	return "", false
}

// CacheSet stores value under key with the configured TTL.
func CacheSet(key, value string) {
	if channelCache == nil {
		return
	}
	channelCache.evictIfNeeded()
	channelCache.l1.Store(key, &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(channelCache.ttl),
	})
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded removes entries when the cache exceeds maxEntries.
// Removes expired entries first, then oldest entries if still over limit.
func (c *memoryCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})
	if count < c.maxEntries {
		return
	}

	// Earlier expiry = older entry (since expiry = createdAt + ttl).
	var oldest struct {
		key any
		at  time.Time
	}
	for count >= c.maxEntries {
		oldest.key = nil
		oldest.at = time.Now().Add(time.Hour)
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldest.at) {
				oldest.key = key
				oldest.at = entry.expiresAt
			}
			return true
		})
		if oldest.key == nil {
			break
		}
		c.l1.Delete(oldest.key)
		count--
	}
}

// cleanupLoop periodically removes expired entries.
func (c *memoryCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}
