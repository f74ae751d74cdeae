// Package service implements the rank service's score update engine and the
// reconciliation pass that compares the durable snapshot against the cached
// ranking mirror.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRankKey is the ranking namespace used when none is configured.
const DefaultRankKey = "rank:global"

const tracerName = "github.com/kevinchn/rankboard/internal/services/rank/service"

// Service orchestrates score updates across the durable store and the
// ranking cache, and serves the read paths.
type Service struct {
	store   storage.Store
	ranking cache.Ranking
	rankKey string
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithRankKey overrides the ranking cache key name.
func WithRankKey(key string) Option {
	return func(s *Service) {
		if strings.TrimSpace(key) != "" {
			s.rankKey = key
		}
	}
}

// New creates a Service backed by the given durable store and ranking cache.
func New(store storage.Store, ranking cache.Ranking, opts ...Option) *Service {
	s := &Service{
		store:   store,
		ranking: ranking,
		rankKey: DefaultRankKey,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RankKey returns the ranking namespace this service writes to.
func (s *Service) RankKey() string {
	return s.rankKey
}

// AddScore applies one score change for the named member.
//
// The ledger append and snapshot upsert commit in a single durable
// transaction; the ranking cache increment runs after the commit and is
// best-effort. A cache failure is logged and swallowed so that durable write
// success is never blocked by cache unavailability; reconciliation picks the
// drift up later. The returned score is the durable post-update snapshot
// value, not the cache's.
func (s *Service) AddScore(ctx context.Context, member string, delta float64, reason string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "rank.AddScore",
		trace.WithAttributes(attribute.String("rank.member", member), attribute.Float64("rank.delta", delta)))
	defer span.End()

	if err := rank.ValidateDelta(delta); err != nil {
		return 0, err
	}
	if err := rank.ValidateMember(member); err != nil {
		return 0, err
	}
	if err := rank.ValidateReason(reason); err != nil {
		return 0, err
	}
	member = strings.TrimSpace(member)

	user, err := s.store.GetUserByUsername(ctx, member)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.WithMetadata(apperrors.CodeNotFound,
				fmt.Sprintf("user %q not found", member),
				map[string]string{"member": member})
		}
		return 0, fmt.Errorf("resolve member %q: %w", member, err)
	}

	score, err := s.store.ApplyScoreChange(ctx, user.ID, delta, reason)
	if err != nil {
		return 0, fmt.Errorf("apply score change: %w", err)
	}

	if _, err := s.ranking.IncrementScore(ctx, s.rankKey, member, delta); err != nil {
		// Durable truth is committed; the mirror catches up via
		// reconciliation.
		log.Printf("rank cache increment failed, reconciliation needed: member=%s delta=%v err=%v", member, delta, err)
	}

	log.Printf("addScore ok member=%s delta=%v newScore=%v", member, delta, score)
	return score, nil
}

// TopN returns up to n ranking entries from the cache, score descending.
//
// A cache failure propagates as the read's error; there is no fallback to
// the durable snapshot. n <= 0 yields an empty slice.
func (s *Service) TopN(ctx context.Context, n int) ([]rank.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "rank.TopN",
		trace.WithAttributes(attribute.Int("rank.n", n)))
	defer span.End()

	if n <= 0 {
		return nil, nil
	}
	entries, err := s.ranking.TopN(ctx, s.rankKey, n)
	if err != nil {
		return nil, fmt.Errorf("rank cache top %d: %w", n, err)
	}
	return entries, nil
}
