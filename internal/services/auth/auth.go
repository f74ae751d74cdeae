// Package auth implements password login and opaque bearer sessions for the
// rank service.
//
// Sessions are server-side state: an opaque random token maps to a JSON
// session document in the TTL key-value cache. Logout deletes the document,
// revoking the token immediately, and expiry is enforced by the cache TTL.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
)

const (
	// tokenPrefix namespaces session documents in the shared key-value space.
	tokenPrefix = "session:token:"
	// tokenBytes is the entropy of a session token before encoding.
	tokenBytes = 32

	// DefaultSessionTTL bounds how long an idle session stays valid.
	DefaultSessionTTL = 30 * time.Minute
)

// ErrInvalidCredentials rejects a login with an unknown username or a wrong
// password. The two cases are deliberately indistinguishable to callers.
var ErrInvalidCredentials = apperrors.New(apperrors.CodeAuthCredentialsInvalid, "invalid username or password")

// ErrTokenMissing rejects a session lookup with an empty token.
var ErrTokenMissing = apperrors.New(apperrors.CodeAuthTokenMissing, "session token missing")

// ErrSessionExpired rejects a token with no live session document, whether it
// expired, was logged out, or never existed.
var ErrSessionExpired = apperrors.New(apperrors.CodeAuthSessionExpired, "session expired or revoked")

// Session is the authenticated identity attached to a live token.
type Session struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	IssuedAtMillis int64  `json:"issued_at"`
}

// Service authenticates users against the durable account store and manages
// session documents in the key-value cache.
type Service struct {
	users storage.UserStore
	kv    cache.KV
	ttl   time.Duration
	now   func() time.Time
}

// Option adjusts Service construction.
type Option func(*Service)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New builds an auth service over the given account store and key-value cache.
func New(users storage.UserStore, kv cache.KV, opts ...Option) *Service {
	s := &Service{
		users: users,
		kv:    kv,
		ttl:   DefaultSessionTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// HashPassword derives a bcrypt hash for storage alongside an account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the password for username and issues a fresh session token.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Session, string, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, "", err
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, "", err
	}
	session := Session{
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		Role:           user.Role,
		IssuedAtMillis: s.now().UnixMilli(),
	}
	doc, err := json.Marshal(session)
	if err != nil {
		return Session{}, "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, tokenPrefix+token, string(doc), s.ttl); err != nil {
		return Session{}, "", fmt.Errorf("store session: %w", err)
	}
	return session, token, nil
}

// GetSession resolves a bearer token to its live session.
func (s *Service) GetSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrTokenMissing
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	doc, err := s.kv.Get(ctx, tokenPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var session Session
	if err := json.Unmarshal([]byte(doc), &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Logout revokes a token. Revoking an unknown or already-expired token is not
// an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenMissing
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, tokenPrefix+token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
