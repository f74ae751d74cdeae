// Package redis provides the Redis-backed cache implementation. The ranking
// mirror lives in a sorted set (ZINCRBY / ZREVRANGE WITHSCORES); sessions and
// temp entries use plain string keys with TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
	goredis "github.com/redis/go-redis/v9"
)

// Cache is a Redis-backed cache.
type Cache struct {
	client *goredis.Client
}

// Open connects to the Redis server at addr and verifies the connection.
func Open(ctx context.Context, addr string) (*Cache, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// New wraps an existing client. The caller keeps ownership of the client's
// lifecycle when constructed this way.
func New(client *goredis.Client) *Cache {
	return &Cache{client: client}
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) ready() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache is not configured")
	}
	return nil
}

// IncrementScore atomically adds delta to member's sorted-set score.
func (c *Cache) IncrementScore(ctx context.Context, key, member string, delta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := c.ready(); err != nil {
		return 0, err
	}
	score, err := c.client.ZIncrBy(ctx, key, delta, member).Result()
	if err != nil {
		return 0, fmt.Errorf("zincrby %s %s: %w", key, member, err)
	}
	return score, nil
}

// TopN returns up to n entries ordered by score descending. Redis orders
// equal scores lexically by member; callers must not depend on that.
func (c *Cache) TopN(ctx context.Context, key string, n int) ([]rank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	tuples, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", key, err)
	}

	entries := make([]rank.Entry, 0, len(tuples))
	for _, tuple := range tuples {
		member, ok := tuple.Member.(string)
		if !ok || math.IsNaN(tuple.Score) || math.IsInf(tuple.Score, 0) {
			continue
		}
		entries = append(entries, rank.Entry{Member: member, Score: tuple.Score})
	}
	return entries, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the live value for key, or cache.ErrMiss when absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.ready(); err != nil {
		return "", err
	}
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", cache.ErrMiss
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

var _ cache.Cache = (*Cache)(nil)
