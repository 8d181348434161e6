package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
)

type memorySessions struct {
	token string
	saved bool
}

func (m *memorySessions) Save(_ context.Context, token string) error {
	m.token = token
	m.saved = true
	return nil
}

func (m *memorySessions) Load(_ context.Context) (string, error) {
	if !m.saved {
		return "", store.ErrLocalSessionNotFound
	}
	return m.token, nil
}

func (m *memorySessions) Clear(_ context.Context) error {
	m.token = ""
	m.saved = false
	return nil
}

func signedToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestManager_SignInRestoresAcrossInstances(t *testing.T) {
	repo := &memorySessions{}
	token := signedToken(t, "user-7", time.Now().Add(time.Hour))

	first := NewManager(repo, logger.Nop())
	require.NoError(t, first.SignIn(context.Background(), token))
	assert.True(t, first.IsAuthenticated())
	assert.Equal(t, "user-7", first.UserID())

	second := NewManager(repo, logger.Nop())
	require.NoError(t, second.Restore(context.Background()))
	assert.Equal(t, token, second.Token())
	assert.True(t, second.IsAuthenticated())
}

func TestManager_ExpiredTokenIsNotAuthenticated(t *testing.T) {
	repo := &memorySessions{}
	manager := NewManager(repo, logger.Nop())

	token := signedToken(t, "user-7", time.Now().Add(-time.Minute))
	require.NoError(t, manager.SignIn(context.Background(), token))

	assert.False(t, manager.IsAuthenticated())
	assert.NotEmpty(t, manager.Token(), "expired token still presented so the server can reject it")
}

func TestManager_SignOutClearsEverything(t *testing.T) {
	repo := &memorySessions{}
	manager := NewManager(repo, logger.Nop())
	require.NoError(t, manager.SignIn(context.Background(), signedToken(t, "user-7", time.Now().Add(time.Hour))))

	require.NoError(t, manager.SignOut(context.Background()))

	assert.Empty(t, manager.Token())
	assert.False(t, manager.IsAuthenticated())

	restored := NewManager(repo, logger.Nop())
	require.NoError(t, restored.Restore(context.Background()))
	assert.False(t, restored.IsAuthenticated())
}

func TestManager_RestoreDiscardsMalformedToken(t *testing.T) {
	repo := &memorySessions{token: "not-a-jwt", saved: true}
	manager := NewManager(repo, logger.Nop())

	require.NoError(t, manager.Restore(context.Background()))
	assert.False(t, manager.IsAuthenticated())
	assert.False(t, repo.saved, "malformed token removed from storage")
}

func TestManager_NoSessionOnFreshInstall(t *testing.T) {
	manager := NewManager(&memorySessions{}, logger.Nop())
	require.NoError(t, manager.Restore(context.Background()))
	assert.False(t, manager.IsAuthenticated())
}
