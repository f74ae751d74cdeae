package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/cache/memory"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
	"github.com/kevinchn/rankboard/internal/services/rank/storage/sqlite"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "service-test.db"))
	if err != nil {
		t.Fatalf("open temp store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *sqlite.Store, username string) storage.UserRecord {
	t.Helper()
	u, err := store.CreateUser(context.Background(), storage.UserRecord{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
	})
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}

// brokenRanking simulates an unavailable ranking cache.
type brokenRanking struct{}

func (brokenRanking) IncrementScore(ctx context.Context, key, member string, delta float64) (float64, error) {
	return 0, fmt.Errorf("zincrby: %w", cache.ErrUnavailable)
}

func (brokenRanking) TopN(ctx context.Context, key string, n int) ([]rank.Entry, error) {
	return nil, fmt.Errorf("zrevrange: %w", cache.ErrUnavailable)
}

func TestAddScoreEndToEnd(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreateUser(t, store, "kevin")
	svc := New(store, memory.New())

	score, err := svc.AddScore(context.Background(), "kevin", 100, "seed")
	if err != nil {
		t.Fatalf("add score: %v", err)
	}
	if score != 100 {
		t.Fatalf("score = %v, want 100", score)
	}

	entries, err := svc.TopN(context.Background(), 1)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(entries) != 1 || entries[0].Member != "kevin" || entries[0].Score != 100 {
		t.Fatalf("entries = %+v, want [kevin/100]", entries)
	}
}

func TestAddScoreReturnsDurableSum(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "alice")
	svc := New(store, memory.New())

	deltas := []float64{10, -3, 0.5}
	var want float64
	var got float64
	for _, delta := range deltas {
		var err error
		got, err = svc.AddScore(context.Background(), "alice", delta, "")
		if err != nil {
			t.Fatalf("add score %v: %v", delta, err)
		}
		want += delta
	}
	if got != want {
		t.Fatalf("score = %v, want %v", got, want)
	}

	events, err := store.ListScoreEvents(context.Background(), user.ID, 100)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != len(deltas) {
		t.Fatalf("ledger rows = %d, want %d", len(events), len(deltas))
	}
}

func TestAddScoreRejectsNonFiniteDeltaBeforeAnyWrite(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "kevin")
	svc := New(store, memory.New())

	for _, delta := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := svc.AddScore(context.Background(), "kevin", delta, "bad")
		if !errors.Is(err, apperrors.New(apperrors.CodeScoreDeltaNotFinite, "")) {
			t.Fatalf("AddScore(%v) error = %v, want delta-not-finite", delta, err)
		}
	}

	events, err := store.ListScoreEvents(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("ledger rows = %d, want 0", len(events))
	}
	if _, err := store.GetSnapshotScore(context.Background(), user.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("snapshot error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestAddScoreRejectsUnknownMember(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	svc := New(store, memory.New())

	_, err := svc.AddScore(context.Background(), "ghost", 5, "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown member error = %v, want not-found", err)
	}

	// No cache entry was created either.
	entries, topErr := svc.TopN(context.Background(), 10)
	if topErr != nil {
		t.Fatalf("top n: %v", topErr)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestAddScoreRejectsOversizedReason(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreateUser(t, store, "kevin")
	svc := New(store, memory.New())

	_, err := svc.AddScore(context.Background(), "kevin", 1, strings.Repeat("r", rank.MaxReasonLength+1))
	if !errors.Is(err, apperrors.New(apperrors.CodeScoreReasonTooLong, "")) {
		t.Fatalf("oversized reason error = %v, want reason-too-long", err)
	}
}

func TestAddScoreSwallowsCacheFailure(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "kevin")
	svc := New(store, brokenRanking{})

	score, err := svc.AddScore(context.Background(), "kevin", 100, "seed")
	if err != nil {
		t.Fatalf("add score with broken cache: %v", err)
	}
	if score != 100 {
		t.Fatalf("score = %v, want 100", score)
	}

	// The durable side committed.
	snapshot, err := store.GetSnapshotScore(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get snapshot score: %v", err)
	}
	if snapshot != 100 {
		t.Fatalf("snapshot = %v, want 100", snapshot)
	}
}

func TestDiffTopNDetectsDriftAfterCacheFailure(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreateUser(t, store, "kevin")

	// Write while the cache is down, then reconcile with it back up.
	broken := New(store, brokenRanking{})
	if _, err := broken.AddScore(context.Background(), "kevin", 100, "seed"); err != nil {
		t.Fatalf("add score: %v", err)
	}

	healthy := New(store, memory.New())
	drifts, err := healthy.DiffTopN(context.Background(), 10, 1.0)
	if err != nil {
		t.Fatalf("diff top n: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(drifts))
	}
	if drifts[0].Member != "kevin" || drifts[0].DBScore != 100 || drifts[0].CacheScore != 0 || drifts[0].Delta != -100 {
		t.Fatalf("drift = %+v, want kevin db=100 cache=0 delta=-100", drifts[0])
	}
}

func TestTopNNonPositiveNYieldsEmpty(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	svc := New(store, memory.New())
	for _, n := range []int{0, -3} {
		entries, err := svc.TopN(context.Background(), n)
		if err != nil {
			t.Fatalf("top n(%d): %v", n, err)
		}
		if len(entries) != 0 {
			t.Fatalf("top n(%d) = %d entries, want 0", n, len(entries))
		}
	}
}

func TestTopNPropagatesCacheFailure(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	svc := New(store, brokenRanking{})

	if _, err := svc.TopN(context.Background(), 5); !errors.Is(err, cache.ErrUnavailable) {
		t.Fatalf("top n error = %v, want cache unavailable", err)
	}
}

func TestWithRankKeyOverridesNamespace(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreateUser(t, store, "kevin")
	ranking := memory.New()
	svc := New(store, ranking, WithRankKey("rank:weekly"))

	if svc.RankKey() != "rank:weekly" {
		t.Fatalf("rank key = %q, want %q", svc.RankKey(), "rank:weekly")
	}
	if _, err := svc.AddScore(context.Background(), "kevin", 10, ""); err != nil {
		t.Fatalf("add score: %v", err)
	}

	entries, err := ranking.TopN(context.Background(), "rank:weekly", 1)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(entries) != 1 || entries[0].Member != "kevin" {
		t.Fatalf("entries = %+v, want [kevin/10]", entries)
	}
}
