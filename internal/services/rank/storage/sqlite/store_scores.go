package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

// Score ledger and snapshot methods. The ledger is append-only; the snapshot
// row carries the running sum and is only ever written through the
// conflict-resolving upsert below.

const upsertAddScoreSQL = `
INSERT INTO user_scores (user_id, score) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET score = user_scores.score + excluded.score`

// AppendScoreEvent appends one immutable ledger row.
func (s *Store) AppendScoreEvent(ctx context.Context, evt storage.ScoreEventRecord) (storage.ScoreEventRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ScoreEventRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ScoreEventRecord{}, err
	}
	if evt.UserID <= 0 {
		return storage.ScoreEventRecord{}, fmt.Errorf("user id is required")
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	evt.CreatedAt = evt.CreatedAt.UTC().Truncate(time.Millisecond)

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO score_events (user_id, delta, reason, created_at) VALUES (?, ?, ?, ?)`,
		evt.UserID,
		evt.Delta,
		evt.Reason,
		toMillis(evt.CreatedAt),
	)
	if err != nil {
		return storage.ScoreEventRecord{}, fmt.Errorf("append score event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.ScoreEventRecord{}, fmt.Errorf("append score event id: %w", err)
	}
	evt.ID = id
	return evt, nil
}

// ListScoreEvents returns ledger rows for a user ordered by ID ascending.
func (s *Store) ListScoreEvents(ctx context.Context, userID int64, limit int) ([]storage.ScoreEventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, user_id, delta, reason, created_at
		   FROM score_events
		  WHERE user_id = ?
		  ORDER BY id ASC
		  LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list score events: %w", err)
	}
	defer rows.Close()

	var events []storage.ScoreEventRecord
	for rows.Next() {
		var evt storage.ScoreEventRecord
		var createdAt int64
		if err := rows.Scan(&evt.ID, &evt.UserID, &evt.Delta, &evt.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("list score events: %w", err)
		}
		evt.CreatedAt = fromMillis(createdAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list score events: %w", err)
	}
	return events, nil
}

// UpsertAddScore atomically adds delta to the user's snapshot score.
func (s *Store) UpsertAddScore(ctx context.Context, userID int64, delta float64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	if userID <= 0 {
		return 0, fmt.Errorf("user id is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, upsertAddScoreSQL, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("upsert score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("upsert score rows: %w", err)
	}
	return affected, nil
}

// GetSnapshotScore returns the user's current snapshot score.
func (s *Store) GetSnapshotScore(ctx context.Context, userID int64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var score float64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT score FROM user_scores WHERE user_id = ?`, userID)
	if err := row.Scan(&score); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get snapshot score: %w", err)
	}
	return score, nil
}

// TopSnapshots returns up to n snapshot entries ordered by score descending,
// joined to accounts for member names. Ties order by username ascending so
// reconciliation sees a stable sequence.
func (s *Store) TopSnapshots(ctx context.Context, n int) ([]rank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT u.username, s.score
		   FROM user_scores s
		   JOIN users u ON u.id = s.user_id
		  ORDER BY s.score DESC, u.username ASC
		  LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("top snapshots: %w", err)
	}
	defer rows.Close()

	entries := make([]rank.Entry, 0, n)
	for rows.Next() {
		var entry rank.Entry
		if err := rows.Scan(&entry.Member, &entry.Score); err != nil {
			return nil, fmt.Errorf("top snapshots: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top snapshots: %w", err)
	}
	return entries, nil
}

// ApplyScoreChange appends a score event and applies its delta to the
// snapshot inside a single transaction, returning the post-update snapshot
// score. Either both rows persist or neither does.
func (s *Store) ApplyScoreChange(ctx context.Context, userID int64, delta float64, reason string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	if userID <= 0 {
		return 0, fmt.Errorf("user id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO score_events (user_id, delta, reason, created_at) VALUES (?, ?, ?, ?)`,
		userID,
		delta,
		reason,
		toMillis(createdAt),
	); err != nil {
		return 0, fmt.Errorf("append score event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, upsertAddScoreSQL, userID, delta); err != nil {
		return 0, fmt.Errorf("upsert score: %w", err)
	}

	var score float64
	row := tx.QueryRowContext(ctx, `SELECT score FROM user_scores WHERE user_id = ?`, userID)
	if err := row.Scan(&score); err != nil {
		return 0, fmt.Errorf("read back score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return score, nil
}
