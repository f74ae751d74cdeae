package service

import (
	"context"
	"fmt"
	"math"

	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DiffTopN compares the durable snapshot's top-n against the ranking cache's
// top-n and reports members whose scores disagree by more than epsilon.
//
// Both sides are fetched independently and non-atomically, so a reported
// drift can be a transient in-flight update rather than real divergence;
// isolated single-member diffs near epsilon warrant a re-run before
// escalation. The report's order is first-seen: snapshot entries first, then
// cache-only members. A member missing from either side counts as score 0.
// The pass is read-only; repairing drift is an operator action.
func (s *Service) DiffTopN(ctx context.Context, n int, epsilon float64) ([]rank.Drift, error) {
	ctx, span := s.tracer.Start(ctx, "rank.DiffTopN",
		trace.WithAttributes(attribute.Int("rank.n", n), attribute.Float64("rank.epsilon", epsilon)))
	defer span.End()

	if n <= 0 {
		return nil, nil
	}

	dbEntries, err := s.store.TopSnapshots(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("snapshot top %d: %w", n, err)
	}
	cacheEntries, err := s.ranking.TopN(ctx, s.rankKey, n)
	if err != nil {
		return nil, fmt.Errorf("rank cache top %d: %w", n, err)
	}

	dbScores := make(map[string]float64, len(dbEntries))
	cacheScores := make(map[string]float64, len(cacheEntries))
	members := make([]string, 0, len(dbEntries)+len(cacheEntries))
	seen := make(map[string]bool, len(dbEntries)+len(cacheEntries))

	for _, entry := range dbEntries {
		dbScores[entry.Member] = entry.Score
		if !seen[entry.Member] {
			seen[entry.Member] = true
			members = append(members, entry.Member)
		}
	}
	for _, entry := range cacheEntries {
		cacheScores[entry.Member] = entry.Score
		if !seen[entry.Member] {
			seen[entry.Member] = true
			members = append(members, entry.Member)
		}
	}

	var drifts []rank.Drift
	for _, member := range members {
		dbScore := dbScores[member]
		cacheScore := cacheScores[member]
		if math.Abs(dbScore-cacheScore) > epsilon {
			drifts = append(drifts, rank.Drift{
				Member:     member,
				DBScore:    dbScore,
				CacheScore: cacheScore,
				Delta:      cacheScore - dbScore,
			})
		}
	}
	return drifts, nil
}
