// Package session keeps the authenticated user's token between app
// launches and answers authentication checks for the sync layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Manager caches the session token in memory and persists it through
// the session repository. It satisfies adapter.TokenProvider.
type Manager struct {
	mu     sync.RWMutex
	token  string
	userID string

	sessions store.SessionRepository
	logger   *logger.Logger
}

func NewManager(sessions store.SessionRepository, log *logger.Logger) *Manager {
	return &Manager{sessions: sessions, logger: log}
}

// Restore loads a previously saved token from local storage. A missing
// session is not an error: the manager simply stays unauthenticated.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.sessions.Load(ctx)
	if errors.Is(err, store.ErrLocalSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	claims, err := parseClaims(token)
	if err != nil {
		m.logger.Warn().Err(err).Msg("discarding malformed stored session token")
		return m.sessions.Clear(ctx)
	}

	m.mu.Lock()
	m.token = token
	m.userID = claims.Subject
	m.mu.Unlock()
	return nil
}

// SignIn persists the token and makes it the active session.
func (m *Manager) SignIn(ctx context.Context, token string) error {
	claims, err := parseClaims(token)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := m.sessions.Save(ctx, token); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.userID = claims.Subject
	m.mu.Unlock()
	return nil
}

// SignOut clears both the in-memory and the persisted session.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.userID = ""
	m.mu.Unlock()

	return m.sessions.Clear(ctx)
}

// Token returns the current bearer token or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// IsAuthenticated reports whether a token is present and not expired.
// The signature is not verified here: the server rejects forged tokens,
// the client only needs the expiry to avoid pointless requests.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		return false
	}

	claims, err := parseClaims(token)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.After(time.Now())
}

func parseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
