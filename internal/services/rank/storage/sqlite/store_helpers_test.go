package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "rank-test.db"))
	if err != nil {
		t.Fatalf("open temp store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close temp store: %v", err)
		}
	})
	return store
}

func mustCreateUser(t *testing.T, store *Store, username string) storage.UserRecord {
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
