package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsible/sync-core/internal/logger"
)

func TestCounterRepository_Load_AbsentReturnsZero(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT value FROM sync_counters WHERE name = \?`).
		WithArgs(LocalIDCounterName).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, err := repo.Load(context.Background(), LocalIDCounterName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)
}

func TestCounterRepository_LoadStoredValue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT value FROM sync_counters WHERE name = \?`).
		WithArgs(LocalIDCounterName).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(-17))

	value, err := repo.Load(context.Background(), LocalIDCounterName)
	require.NoError(t, err)
	assert.Equal(t, int64(-17), value)
}

func TestCounterRepository_Store(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db, logger.Nop())

	mock.ExpectExec(`INSERT INTO sync_counters .* ON CONFLICT\(name\) DO UPDATE SET`).
		WithArgs(LocalIDCounterName, int64(-18)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Store(context.Background(), LocalIDCounterName, -18))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_LoadAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT token FROM session WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"token"}))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrLocalSessionNotFound)
}

func TestSessionRepository_SaveAndClear(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, logger.Nop())

	mock.ExpectExec(`INSERT INTO session .* ON CONFLICT\(id\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM session WHERE id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), "jwt-token"))
	require.NoError(t, repo.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
