// Package access is the administrator access-control component. A Guard turns
// a password into a stored session and a session id back into an Admin
// capability; moderation operations take that capability as an explicit
// argument instead of reading ambient cookie state.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Admin proves that the holder presented a live administrator session. The
// zero value grants nothing; only Guard.Authorize produces a usable one.
type Admin struct {
	sessionID string
	expiresAt time.Time
}

// Authenticated reports whether a carries a session that has not expired.
func (a Admin) Authenticated() bool {
	return a.sessionID != "" && time.Now().Before(a.expiresAt)
}

// SessionStore persists administrator sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Find(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

// Guard checks the administrator password and manages sessions.
type Guard struct {
	passwordHash []byte
	sessions     SessionStore
	ttl          time.Duration
	now          func() time.Time
}

// NewGuard creates a Guard for a bcrypt password hash.
func NewGuard(passwordHash string, sessions SessionStore, ttl time.Duration) *Guard {
	return &Guard{
		passwordHash: []byte(passwordHash),
		sessions:     sessions,
		ttl:          ttl,
		now:          time.Now,
	}
}

// Login verifies password and opens a new session.
func (g *Guard) Login(ctx context.Context, password string) (Session, error) {
	if password == "" {
		return Session{}, ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidPassword
	}

	now := g.now()
	if err := g.sessions.DeleteExpired(ctx, now); err != nil {
		return Session{}, fmt.Errorf("pruning sessions: %w", err)
	}

	s := Session{
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(g.ttl),
		CreatedAt: now,
	}
	if err := g.sessions.Create(ctx, s); err != nil {
		return Session{}, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}

// Authorize resolves a session id into an Admin capability.
func (g *Guard) Authorize(ctx context.Context, sessionID string) (Admin, error) {
	if sessionID == "" {
		return Admin{}, ErrSessionNotFound
	}

	s, err := g.sessions.Find(ctx, sessionID)
	if err != nil {
		return Admin{}, err
	}
	if !s.ExpiresAt.After(g.now()) {
		return Admin{}, ErrSessionExpired
	}
	return Admin{sessionID: s.SessionID, expiresAt: s.ExpiresAt}, nil
}

// Logout ends a session. Unknown ids are ignored.
func (g *Guard) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
