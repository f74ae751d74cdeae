// Package cache defines the non-durable cache boundary for the rank service:
// the ordered ranking mirror and the TTL key-value space used for sessions
// and temp entries.
//
// Nothing behind these interfaces is a source of truth. The ranking mirror
// may drift from the durable snapshot; reconciliation detects that drift and
// operators repair it out of band.
package cache

import (
	"context"
	"time"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
)

// ErrMiss indicates a key-value lookup found no live entry.
var ErrMiss = apperrors.New(apperrors.CodeNotFound, "cache key not found")

// ErrUnavailable indicates the cache backend could not be reached.
var ErrUnavailable = apperrors.New(apperrors.CodeCacheUnavailable, "cache unavailable")

// Ranking is an ordered-set structure mapping members to float scores,
// addressed by a ranking key name.
type Ranking interface {
	// IncrementScore atomically adds delta to member's score under key,
	// creating the member at delta when absent, and returns the new score.
	// Concurrent increments for the same member must compose without lost
	// updates.
	IncrementScore(ctx context.Context, key, member string, delta float64) (float64, error)
	// TopN returns up to n entries ordered by score descending. The tie
	// order for equal scores is stable but implementation-defined; callers
	// must not depend on it. n <= 0 yields an empty slice, never an error.
	// Entries with non-finite scores are filtered out.
	TopN(ctx context.Context, key string, n int) ([]rank.Entry, error)
}

// KV is a flat string key-value space with per-entry TTL.
type KV interface {
	// Set stores value under key for ttl. A non-positive ttl is rejected.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the live value for key, or ErrMiss when absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Cache is the composite cache surface the rank service is wired with.
type Cache interface {
	Ranking
	KV
	Close() error
}
