// Package memory provides an in-process cache implementation for development
// and tests. It mirrors the Redis implementation's observable behavior,
// including the score-descending, member-ascending tie order.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
)

type kvEntry struct {
	value     string
	expiresAt time.Time
}

// Cache is an in-process cache guarded by a single mutex.
type Cache struct {
	mu       sync.Mutex
	rankings map[string]map[string]float64
	kv       map[string]kvEntry
	now      func() time.Time
}

// New creates an empty in-process cache.
func New() *Cache {
	return &Cache{
		rankings: make(map[string]map[string]float64),
		kv:       make(map[string]kvEntry),
		now:      time.Now,
	}
}

// Close releases nothing; it exists to satisfy the cache.Cache contract.
func (c *Cache) Close() error {
	return nil
}

// IncrementScore atomically adds delta to member's score under key.
func (c *Cache) IncrementScore(ctx context.Context, key, member string, delta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	scores := c.rankings[key]
	if scores == nil {
		scores = make(map[string]float64)
		c.rankings[key] = scores
	}
	scores[member] += delta
	return scores[member], nil
}

// TopN returns up to n entries ordered by score descending, ties by member
// ascending.
func (c *Cache) TopN(ctx context.Context, key string, n int) ([]rank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	scores := c.rankings[key]
	entries := make([]rank.Entry, 0, len(scores))
	for member, score := range scores {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		entries = append(entries, rank.Entry{Member: member, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member < entries[j].Member
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kv[key] = kvEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

// Get returns the live value for key, or cache.ErrMiss when absent or
// expired. Expired entries are dropped lazily.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.kv[key]
	if !ok {
		return "", cache.ErrMiss
	}
	if c.now().After(entry.expiresAt) {
		delete(c.kv, key)
		return "", cache.ErrMiss
	}
	return entry.value, nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.kv, key)
	return nil
}

// SetClock overrides the time source for TTL expiry in tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var _ cache.Cache = (*Cache)(nil)
