package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/mock"
	"github.com/finsible/sync-core/internal/store"
)

func TestLocalIDGenerator_FirstIDIsMinusOne(t *testing.T) {
	gen := NewLocalIDGenerator(newMemCounter(), logger.Nop())

	id, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id)
}

func TestLocalIDGenerator_StrictlyDecreasing(t *testing.T) {
	gen := NewLocalIDGenerator(newMemCounter(), logger.Nop())
	ctx := context.Background()

	prev := int64(0)
	for i := 0; i < 50; i++ {
		id, err := gen.Next(ctx)
		require.NoError(t, err)
		assert.Less(t, id, prev)
		prev = id
	}
}

func TestLocalIDGenerator_PersistsBeforeReturning(t *testing.T) {
	counter := newMemCounter()
	gen := NewLocalIDGenerator(counter, logger.Nop())

	id, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, counter.values[store.LocalIDCounterName])
	assert.Equal(t, 1, counter.stores)
}

func TestLocalIDGenerator_ResumesAcrossRestarts(t *testing.T) {
	counter := newMemCounter()
	ctx := context.Background()

	first := NewLocalIDGenerator(counter, logger.Nop())
	for i := 0; i < 3; i++ {
		_, err := first.Next(ctx)
		require.NoError(t, err)
	}

	// A new generator over the same counter must not reissue -1..-3.
	second := NewLocalIDGenerator(counter, logger.Nop())
	id, err := second.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-4), id)
}

func TestLocalIDGenerator_PersistFailureIssuesNothing(t *testing.T) {
	counter := newMemCounter()
	counter.saveErr = errors.New("disk full")
	gen := NewLocalIDGenerator(counter, logger.Nop())

	_, err := gen.Next(context.Background())
	require.Error(t, err)

	// Recovery resumes the original sequence.
	counter.saveErr = nil
	id, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id)
}

func TestLocalIDGenerator_ConcurrentCallersGetUniqueIDs(t *testing.T) {
	gen := NewLocalIDGenerator(newMemCounter(), logger.Nop())
	ctx := context.Background()

	const callers = 64
	ids := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gen.Next(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.True(t, IsLocalID(id))
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, callers)
}

func TestLocalIDGenerator_LoadsCounterOnceAndStoresEveryID(t *testing.T) {
	ctrl := gomock.NewController(t)
	counter := mock.NewMockCounterRepository(ctrl)
	gomock.InOrder(
		counter.EXPECT().Load(gomock.Any(), store.LocalIDCounterName).Return(int64(-7), nil),
		counter.EXPECT().Store(gomock.Any(), store.LocalIDCounterName, int64(-8)).Return(nil),
		counter.EXPECT().Store(gomock.Any(), store.LocalIDCounterName, int64(-9)).Return(nil),
	)

	gen := NewLocalIDGenerator(counter, logger.Nop())
	ctx := context.Background()

	id, err := gen.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-8), id)

	id, err = gen.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-9), id)
}

func TestIsLocalID(t *testing.T) {
	assert.True(t, IsLocalID(-1))
	assert.True(t, IsLocalID(-999))
	assert.False(t, IsLocalID(0))
	assert.False(t, IsLocalID(1))
	assert.False(t, IsLocalID(42))
}
