package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/models"
)

func newCategoryHandler(remote *stubCategoryRemote, local *memEntityRepo[models.Category]) EntitySyncHandler {
	return NewCategorySyncHandler(remote, local, logger.Nop())
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestHandler_Create_RemapsPlaceholderToServerID(t *testing.T) {
	remote := &stubCategoryRemote{nextID: 41}
	local := newMemEntityRepo(categoryID, models.Category{
		ID: -5, Name: "Groceries", Kind: models.CategoryExpense, Icon: "cart",
	})
	handler := newCategoryHandler(remote, local)

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationCreate,
		LocalEntityID: -5,
		Payload:       mustMarshal(t, models.CategoryCreateRequest{Name: "Groceries", Kind: models.CategoryExpense, Icon: "cart"}),
	}

	serverID, err := handler.Apply(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, int64(42), serverID)

	_, err = local.Get(context.Background(), -5)
	assert.Error(t, err, "placeholder row replaced")

	row, err := local.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", row.Name)
	require.Len(t, local.remaps, 1)
	assert.Equal(t, [2]int64{-5, 42}, local.remaps[0])
}

func TestHandler_Create_PreservesFieldsServerDoesNotEcho(t *testing.T) {
	remote := &stubCategoryRemote{}
	// The stub echoes the request kind, so blank it out of the server
	// response to simulate a lean reply.
	local := newMemEntityRepo(categoryID, models.Category{
		ID: -2, Name: "Salary", Kind: models.CategoryIncome, SortOrder: 7,
	})
	handler := newCategoryHandler(remote, local)

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationCreate,
		LocalEntityID: -2,
		Payload:       mustMarshal(t, models.CategoryCreateRequest{Name: "Salary"}),
	}

	_, err := handler.Apply(context.Background(), op)
	require.NoError(t, err)

	row, err := local.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryIncome, row.Kind, "locally known kind survives the merge")
	assert.Equal(t, 7, row.SortOrder)
}

func TestHandler_Create_MalformedPayloadIsNotRetryable(t *testing.T) {
	handler := newCategoryHandler(&stubCategoryRemote{}, newMemEntityRepo(categoryID))

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationCreate,
		LocalEntityID: -1,
		Payload:       json.RawMessage(`{broken`),
	}

	_, err := handler.Apply(context.Background(), op)
	require.Error(t, err)
	assert.False(t, adapter.IsRetryable(err))
}

func TestHandler_Update_MergesServerResponseOverLocalRow(t *testing.T) {
	remote := &stubCategoryRemote{
		updateFn: func(id int64, req models.CategoryUpdateRequest) (models.Category, error) {
			// Server response carries the renamed row but no kind.
			return models.Category{ID: id, Name: *req.Name, UpdatedAt: time.Now().UTC()}, nil
		},
	}
	local := newMemEntityRepo(categoryID, models.Category{
		ID: 9, Name: "Food", Kind: models.CategoryExpense, Icon: "fork",
	})
	handler := newCategoryHandler(remote, local)

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationUpdate,
		EntityID:      9,
		Payload:       mustMarshal(t, models.CategoryUpdateRequest{Name: models.Ptr("Food & Drink")}),
	}

	_, err := handler.Apply(context.Background(), op)
	require.NoError(t, err)

	row, err := local.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink", row.Name)
	assert.Equal(t, models.CategoryExpense, row.Kind)
	assert.Equal(t, "fork", row.Icon)
}

func TestHandler_Update_RemoteFailurePropagates(t *testing.T) {
	remote := &stubCategoryRemote{
		updateFn: func(int64, models.CategoryUpdateRequest) (models.Category, error) {
			return models.Category{}, adapter.ServerError(503, "maintenance")
		},
	}
	handler := newCategoryHandler(remote, newMemEntityRepo(categoryID))

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationUpdate,
		EntityID:      9,
		Payload:       mustMarshal(t, models.CategoryUpdateRequest{Name: models.Ptr("x")}),
	}

	_, err := handler.Apply(context.Background(), op)
	require.Error(t, err)
	assert.True(t, adapter.IsRetryable(err))
}

func TestHandler_Delete_RemovesLocalRow(t *testing.T) {
	remote := &stubCategoryRemote{}
	local := newMemEntityRepo(categoryID, models.Category{ID: 7, Name: "Travel"})
	handler := newCategoryHandler(remote, local)

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationDelete,
		EntityID:      7,
	}

	_, err := handler.Apply(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, remote.deleted)

	count, _ := local.Count(context.Background())
	assert.Zero(t, count)
}

func TestHandler_Delete_NotFoundCountsAsSuccess(t *testing.T) {
	remote := &stubCategoryRemote{deleteErr: adapter.NotFoundError("already gone")}
	local := newMemEntityRepo(categoryID, models.Category{ID: 7, Name: "Travel"})
	handler := newCategoryHandler(remote, local)

	op := models.PendingOperation{
		EntityType:    models.EntityCategory,
		OperationType: models.OperationDelete,
		EntityID:      7,
	}

	_, err := handler.Apply(context.Background(), op)
	require.NoError(t, err, "404 means the desired state is already reached")

	count, _ := local.Count(context.Background())
	assert.Zero(t, count)
}

func TestHandler_ApplyDelta_DeletionAndReplacement(t *testing.T) {
	local := newMemEntityRepo(categoryID,
		models.Category{ID: 1, Name: "Old name"},
		models.Category{ID: 2, Name: "Doomed"},
	)
	handler := newCategoryHandler(&stubCategoryRemote{}, local)
	ctx := context.Background()

	require.NoError(t, handler.ApplyDelta(ctx, models.EntityDelta{
		EntityType: models.EntityCategory,
		EntityID:   2,
		Deleted:    true,
	}))

	require.NoError(t, handler.ApplyDelta(ctx, models.EntityDelta{
		EntityType: models.EntityCategory,
		EntityID:   1,
		Payload:    mustMarshal(t, models.Category{ID: 1, Name: "New name", Kind: models.CategoryExpense}),
	}))

	_, err := local.Get(ctx, 2)
	assert.Error(t, err)
	row, err := local.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "New name", row.Name)
}

func TestHandler_ApplyDelta_DeletingMissingRowIsFine(t *testing.T) {
	handler := newCategoryHandler(&stubCategoryRemote{}, newMemEntityRepo(categoryID))

	err := handler.ApplyDelta(context.Background(), models.EntityDelta{
		EntityType: models.EntityCategory,
		EntityID:   99,
		Deleted:    true,
	})
	assert.NoError(t, err)
}

func TestHandler_Refetch_ReplacesServerRowsKeepsPlaceholders(t *testing.T) {
	remote := &stubCategoryRemote{listRows: []models.Category{
		{ID: 1, Name: "Groceries"},
		{ID: 3, Name: "Rent"},
	}}
	local := newMemEntityRepo(categoryID,
		models.Category{ID: 1, Name: "Groceries (stale)"},
		models.Category{ID: 2, Name: "Removed on server"},
		models.Category{ID: -4, Name: "Created offline"},
	)
	handler := newCategoryHandler(remote, local)

	require.NoError(t, handler.Refetch(context.Background()))

	rows, err := local.List(context.Background())
	require.NoError(t, err)
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	assert.Equal(t, []int64{-4, 1, 3}, ids)

	row, _ := local.Get(context.Background(), 1)
	assert.Equal(t, "Groceries", row.Name, "stale copy replaced")
}
