package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServerError_RetryableMatrix checks the classification rule across the
// whole HTTP status range: a server error is retryable iff the code is >= 500.
func TestServerError_RetryableMatrix(t *testing.T) {
	for code := 100; code <= 599; code++ {
		err := ServerError(code, "boom")
		assert.Equal(t, code >= 500, err.Retryable(), "code %d", code)
	}
}

func TestErrorConstructors_Retryability(t *testing.T) {
	assert.True(t, NetworkError(errors.New("conn refused")).Retryable())
	assert.True(t, NetworkError(nil).Retryable())
	assert.False(t, NotFoundError("gone").Retryable())
	assert.False(t, UnauthorizedError().Retryable())
	assert.False(t, ConflictError("stale").Retryable())
	assert.False(t, ValidationError("bad payload", nil).Retryable())
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundError("x")))
	assert.False(t, IsNotFound(ServerError(500, "x")))
	assert.True(t, IsUnauthorized(UnauthorizedError()))
	assert.True(t, IsRetryable(NetworkError(nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

// TestIsHelpers_WrappedErrors verifies classification survives fmt.Errorf
// wrapping, which services do when adding call context.
func TestIsHelpers_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("delete account 5: %w", NotFoundError("no such account"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsRetryable(wrapped))
}

func TestAsSyncError(t *testing.T) {
	require.Nil(t, AsSyncError(nil))

	se := AsSyncError(ServerError(503, "unavailable"))
	require.NotNil(t, se)
	assert.Equal(t, KindServer, se.Kind)

	// foreign errors are treated as local bugs: validation class, not retried
	se = AsSyncError(errors.New("json: cannot unmarshal"))
	require.NotNil(t, se)
	assert.Equal(t, KindValidation, se.Kind)
	assert.False(t, se.Retryable())
}

func TestSyncError_Error(t *testing.T) {
	assert.Contains(t, ServerError(502, "bad gateway").Error(), "502")
	assert.Contains(t, NetworkError(errors.New("dial tcp")).Error(), "dial tcp")
}
