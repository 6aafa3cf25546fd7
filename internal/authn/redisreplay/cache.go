// Package redisreplay implements authn.ReplayCache on Redis, so that the
// (uid, request-id) replay window is shared across every replica of the
// server rather than held per-process. Grounded on the Redis client setup
// used for session storage elsewhere in the retrieved corpus.
package redisreplay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache implements authn.ReplayCache on a *redis.Client.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a Cache storing seen request ids under "{prefix}:{uid}:{id}"
// with the given TTL, which should be set to the server's allowed clock
// skew window.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(uid, requestID string) string {
	return c.prefix + ":" + uid + ":" + requestID
}

// Remember uses SETNX semantics (SetNX) so the "has this been seen"
// check and the "mark it seen" write happen as one atomic Redis command.
func (c *Cache) Remember(ctx context.Context, uid, requestID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(uid, requestID), 1, c.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
