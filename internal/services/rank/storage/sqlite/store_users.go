package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

// CreateUser inserts one account record.
func (s *Store) CreateUser(ctx context.Context, u storage.UserRecord) (storage.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.UserRecord{}, err
	}
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return storage.UserRecord{}, fmt.Errorf("username is required")
	}
	if u.PasswordHash == "" {
		return storage.UserRecord{}, fmt.Errorf("password hash is required")
	}
	displayName := strings.TrimSpace(u.DisplayName)
	if displayName == "" {
		displayName = username
	}
	role := strings.TrimSpace(u.Role)
	if role == "" {
		role = "USER"
	}
	now := time.Now().UTC()
	createdAt := u.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := u.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash, display_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		username,
		u.PasswordHash,
		displayName,
		role,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.UserRecord{}, storage.ErrAlreadyExists
		}
		return storage.UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("create user id: %w", err)
	}

	u.ID = id
	u.Username = username
	u.DisplayName = displayName
	u.Role = role
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return u, nil
}

// GetUserByUsername returns one account by unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (storage.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.UserRecord{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.UserRecord{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, display_name, role, created_at, updated_at
		   FROM users
		  WHERE username = ?`,
		username,
	)

	var u storage.UserRecord
	var createdAt int64
	var updatedAt int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserRecord{}, storage.ErrNotFound
		}
		return storage.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// CountUsers returns the total number of account records.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
