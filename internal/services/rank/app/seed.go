package server

import (
	"context"
	"fmt"
	"log"

	"github.com/kevinchn/rankboard/internal/services/auth"
	"github.com/kevinchn/rankboard/internal/services/rank/service"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

// seedUser is one development account created on first boot.
type seedUser struct {
	username string
	score    float64
}

var defaultSeeds = []seedUser{
	{username: "kevin", score: 100},
	{username: "alice", score: 80},
	{username: "bob", score: 50},
}

const seedPassword = "test1234"

// seedUsers populates development accounts and their starting scores when the
// store is empty. Scores flow through the score update engine so the ledger,
// the snapshot, and the cache all agree after boot.
func seedUsers(ctx context.Context, store storage.Store, rankService *service.Service) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, seed := range defaultSeeds {
		hash, err := auth.HashPassword(seedPassword)
		if err != nil {
			return err
		}
		if _, err := store.CreateUser(ctx, storage.UserRecord{
			Username:     seed.username,
			PasswordHash: hash,
			DisplayName:  seed.username,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", seed.username, err)
		}
		if _, err := rankService.AddScore(ctx, seed.username, seed.score, "seed"); err != nil {
			return fmt.Errorf("seed score %s: %w", seed.username, err)
		}
		log.Printf("seeded user: username=%s score=%v", seed.username, seed.score)
	}
	return nil
}
