package authn

import (
	"context"
	"sync"
	"time"
)

// InProcessReplayCache is a bounded, TTL-expiring ReplayCache held in a
// single process's memory. It is the default wired into cmd/server; the
// Redis-backed variant in internal/authn/redisreplay shares state across
// replicas.
type InProcessReplayCache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	maxSize int
}

// NewInProcessReplayCache returns a cache that remembers a (uid,
// request-id) pair for ttl before allowing it to be seen again, bounded to
// maxSize entries (oldest-first eviction once full, to keep memory use
// from growing without limit on a loaded server).
func NewInProcessReplayCache(ttl time.Duration, maxSize int) *InProcessReplayCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 100_000
	}
	return &InProcessReplayCache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
		maxSize: maxSize,
	}
}

func (c *InProcessReplayCache) key(uid, requestID string) string {
	return uid + "/" + requestID
}

// Remember reports whether (uid, requestID) has not been seen within the
// cache's TTL, and records it as seen either way.
func (c *InProcessReplayCache) Remember(ctx context.Context, uid, requestID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	k := c.key(uid, requestID)
	if expiry, ok := c.seen[k]; ok && now.Before(expiry) {
		return false, nil
	}

	if len(c.seen) >= c.maxSize {
		c.evictExpiredLocked(now)
		// Nothing expired: drop the entry recorded earliest.
		if len(c.seen) >= c.maxSize {
			var oldestKey string
			var oldest time.Time
			for key, expiry := range c.seen {
				if oldestKey == "" || expiry.Before(oldest) {
					oldestKey, oldest = key, expiry
				}
			}
			delete(c.seen, oldestKey)
		}
	}
	c.seen[k] = now.Add(c.ttl)
	return true, nil
}

func (c *InProcessReplayCache) evictExpiredLocked(now time.Time) {
	for k, expiry := range c.seen {
		if !now.Before(expiry) {
			delete(c.seen, k)
		}
	}
}
