package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

func TestApplyScoreChangeAccumulates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "kevin")

	deltas := []float64{100, -30, 12.5, 0, -2.5}
	var want float64
	var got float64
	for _, delta := range deltas {
		var err error
		got, err = store.ApplyScoreChange(context.Background(), user.ID, delta, "test")
		if err != nil {
			t.Fatalf("apply score change %v: %v", delta, err)
		}
		want += delta
	}
	if got != want {
		t.Fatalf("final score = %v, want %v", got, want)
	}

	// Snapshot equals the sum of all ledger deltas.
	events, err := store.ListScoreEvents(context.Background(), user.ID, 100)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != len(deltas) {
		t.Fatalf("ledger rows = %d, want %d", len(events), len(deltas))
	}
	var replayed float64
	for _, evt := range events {
		replayed += evt.Delta
	}
	snapshot, err := store.GetSnapshotScore(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get snapshot score: %v", err)
	}
	if snapshot != replayed {
		t.Fatalf("snapshot = %v, ledger replay = %v", snapshot, replayed)
	}
}

func TestApplyScoreChangeStoresReason(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "kevin")

	if _, err := store.ApplyScoreChange(context.Background(), user.ID, 10, "seed"); err != nil {
		t.Fatalf("apply score change: %v", err)
	}
	events, err := store.ListScoreEvents(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(events))
	}
	if events[0].Reason != "seed" {
		t.Fatalf("reason = %q, want %q", events[0].Reason, "seed")
	}
	if events[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestUpsertAddScoreCreatesThenAdds(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "alice")

	if _, err := store.UpsertAddScore(context.Background(), user.ID, 40); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := store.UpsertAddScore(context.Background(), user.ID, 2.5); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	score, err := store.GetSnapshotScore(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get snapshot score: %v", err)
	}
	if score != 42.5 {
		t.Fatalf("score = %v, want 42.5", score)
	}
}

func TestGetSnapshotScoreReturnsNotFoundWhenAbsent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "bob")

	_, err := store.GetSnapshotScore(context.Background(), user.ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing snapshot error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestTopSnapshotsOrdersByScoreDescending(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	kevin := mustCreateUser(t, store, "kevin")
	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	seeds := []struct {
		userID int64
		delta  float64
	}{
		{kevin.ID, 100},
		{alice.ID, 80},
		{bob.ID, 50},
	}
	for _, seed := range seeds {
		if _, err := store.ApplyScoreChange(context.Background(), seed.userID, seed.delta, "seed"); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	entries, err := store.TopSnapshots(context.Background(), 2)
	if err != nil {
		t.Fatalf("top snapshots: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Member != "kevin" || entries[0].Score != 100 {
		t.Fatalf("first = %+v, want kevin/100", entries[0])
	}
	if entries[1].Member != "alice" || entries[1].Score != 80 {
		t.Fatalf("second = %+v, want alice/80", entries[1])
	}
}

func TestTopSnapshotsTieBreaksByUsername(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	zoe := mustCreateUser(t, store, "zoe")
	amy := mustCreateUser(t, store, "amy")
	for _, id := range []int64{zoe.ID, amy.ID} {
		if _, err := store.ApplyScoreChange(context.Background(), id, 10, ""); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	entries, err := store.TopSnapshots(context.Background(), 10)
	if err != nil {
		t.Fatalf("top snapshots: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Member != "amy" || entries[1].Member != "zoe" {
		t.Fatalf("tie order = [%s, %s], want [amy, zoe]", entries[0].Member, entries[1].Member)
	}
}

func TestTopSnapshotsNonPositiveNYieldsEmpty(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, n := range []int{0, -1} {
		entries, err := store.TopSnapshots(context.Background(), n)
		if err != nil {
			t.Fatalf("top snapshots(%d): %v", n, err)
		}
		if len(entries) != 0 {
			t.Fatalf("top snapshots(%d) = %d entries, want 0", n, len(entries))
		}
	}
}

func TestApplyScoreChangeConcurrentSameUser(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	user := mustCreateUser(t, store, "kevin")

	const workers = 8
	const perWorker = 5
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				if _, err := store.ApplyScoreChange(context.Background(), user.ID, 1, "load"); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent apply: %v", err)
		}
	}

	score, err := store.GetSnapshotScore(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get snapshot score: %v", err)
	}
	if score != workers*perWorker {
		t.Fatalf("score = %v, want %d (no lost updates)", score, workers*perWorker)
	}
}
