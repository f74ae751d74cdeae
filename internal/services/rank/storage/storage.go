// Package storage defines the durable persistence boundary for the rank
// service: user accounts, the append-only score event ledger, and the
// materialized score snapshot.
package storage

import (
	"context"
	"time"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such user" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates a unique constraint rejected a create.
var ErrAlreadyExists = apperrors.New(apperrors.CodeUserAlreadyExists, "record already exists")

// UserRecord captures account identity used by login and score attribution.
type UserRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScoreEventRecord is one immutable row in the score ledger. Events are
// appended exactly once per score change and never mutated or deleted.
type ScoreEventRecord struct {
	ID        int64
	UserID    int64
	Delta     float64
	Reason    string
	CreatedAt time.Time
}

// UserStore owns account records keyed by unique username.
type UserStore interface {
	// CreateUser inserts an account and returns it with ID and timestamps set.
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u UserRecord) (UserRecord, error)
	// GetUserByUsername resolves a username to its account record.
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
	// CountUsers returns the total number of accounts.
	CountUsers(ctx context.Context) (int64, error)
}

// LedgerStore owns the append-only score event journal; this is the source
// of truth for score history.
type LedgerStore interface {
	// AppendScoreEvent appends one immutable ledger row and returns it with
	// ID and timestamp set.
	AppendScoreEvent(ctx context.Context, evt ScoreEventRecord) (ScoreEventRecord, error)
	// ListScoreEvents returns ledger rows for a user ordered by ID ascending.
	ListScoreEvents(ctx context.Context, userID int64, limit int) ([]ScoreEventRecord, error)
}

// SnapshotStore owns the materialized current-score aggregate. At any
// quiescent point a user's snapshot equals the sum of their ledger deltas.
type SnapshotStore interface {
	// UpsertAddScore atomically adds delta to the user's snapshot, creating
	// the row at zero first when absent. Returns the number of affected rows.
	// Concurrency safety is delegated to the database's conflict-resolving
	// upsert; callers must never read-modify-write.
	UpsertAddScore(ctx context.Context, userID int64, delta float64) (int64, error)
	// GetSnapshotScore returns the user's current snapshot score.
	// Returns ErrNotFound when no snapshot row exists.
	GetSnapshotScore(ctx context.Context, userID int64) (float64, error)
	// TopSnapshots returns up to n entries ordered by score descending,
	// joined to accounts for member names. n <= 0 yields an empty slice.
	TopSnapshots(ctx context.Context, n int) ([]rank.Entry, error)
}

// ScoreTxStore exposes the one durable transaction the score update engine
// depends on: ledger append plus snapshot upsert-add commit together or not
// at all.
type ScoreTxStore interface {
	// ApplyScoreChange appends a score event and applies its delta to the
	// snapshot inside a single transaction, returning the post-update
	// snapshot score.
	ApplyScoreChange(ctx context.Context, userID int64, delta float64, reason string) (float64, error)
}

// Store is a composite interface for all durable persistence concerns of the
// rank service.
type Store interface {
	UserStore
	LedgerStore
	SnapshotStore
	ScoreTxStore
	Close() error
}
