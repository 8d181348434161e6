// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Finsible

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finsible/sync-core/internal/service"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

// Mutation recording. Every mutation is applied to the local store
// first and queued for replay second, so the UI reflects it
// immediately whether or not the network is up. A drain is kicked off
// opportunistically after each recording.

func recordCreate[E any, CR any](
	ctx context.Context,
	a *App,
	entityType models.EntityType,
	repo store.EntityRepository[E],
	req CR,
	build func(localID int64, req CR) E,
) (E, error) {
	var zero E

	localID, err := a.localIDs.Next(ctx)
	if err != nil {
		return zero, fmt.Errorf("allocate local id: %w", err)
	}

	entity := build(localID, req)
	if err := repo.Upsert(ctx, entity); err != nil {
		return zero, fmt.Errorf("store local %s: %w", entityType, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("encode %s create payload: %w", entityType, err)
	}

	if _, err := a.driver.Enqueue(ctx, models.PendingOperation{
		EntityType:    entityType,
		OperationType: models.OperationCreate,
		LocalEntityID: localID,
		Payload:       payload,
	}); err != nil {
		return zero, err
	}

	a.drainNow()
	return entity, nil
}

func recordUpdate[E any, UR any](
	ctx context.Context,
	a *App,
	entityType models.EntityType,
	repo store.EntityRepository[E],
	id int64,
	req UR,
	apply func(current E, req UR) E,
) (E, error) {
	var zero E

	current, err := repo.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("load %s %d: %w", entityType, id, err)
	}

	updated := apply(current, req)
	if err := repo.Upsert(ctx, updated); err != nil {
		return zero, fmt.Errorf("store local %s: %w", entityType, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("encode %s update payload: %w", entityType, err)
	}

	op := models.PendingOperation{
		EntityType:    entityType,
		OperationType: models.OperationUpdate,
		Payload:       payload,
	}
	if service.IsLocalID(id) {
		op.LocalEntityID = id
	} else {
		op.EntityID = id
	}

	if _, err := a.driver.Enqueue(ctx, op); err != nil {
		return zero, err
	}

	a.drainNow()
	return updated, nil
}

func recordDelete[E any](
	ctx context.Context,
	a *App,
	entityType models.EntityType,
	repo store.EntityRepository[E],
	id int64,
) error {
	if err := repo.RemoveByID(ctx, id); err != nil {
		return fmt.Errorf("remove local %s %d: %w", entityType, id, err)
	}

	op := models.PendingOperation{
		EntityType:    entityType,
		OperationType: models.OperationDelete,
	}
	if service.IsLocalID(id) {
		op.LocalEntityID = id
	} else {
		op.EntityID = id
	}

	if _, err := a.driver.Enqueue(ctx, op); err != nil {
		return err
	}

	a.drainNow()
	return nil
}

func (a *App) CreateAccount(ctx context.Context, req models.AccountCreateRequest) (models.Account, error) {
	return recordCreate(ctx, a, models.EntityAccount, a.storages.Accounts, req,
		func(localID int64, req models.AccountCreateRequest) models.Account {
			return models.Account{
				ID:           localID,
				GroupID:      req.GroupID,
				Name:         req.Name,
				Currency:     req.Currency,
				BalanceCents: req.BalanceCents,
				UpdatedAt:    time.Now().UTC(),
			}
		})
}

func (a *App) UpdateAccount(ctx context.Context, id int64, req models.AccountUpdateRequest) (models.Account, error) {
	return recordUpdate(ctx, a, models.EntityAccount, a.storages.Accounts, id, req,
		func(current models.Account, req models.AccountUpdateRequest) models.Account {
			if req.GroupID != nil {
				current.GroupID = *req.GroupID
			}
			if req.Name != nil {
				current.Name = *req.Name
			}
			if req.Currency != nil {
				current.Currency = *req.Currency
			}
			if req.BalanceCents != nil {
				current.BalanceCents = *req.BalanceCents
			}
			if req.Archived != nil {
				current.Archived = *req.Archived
			}
			current.UpdatedAt = time.Now().UTC()
			return current
		})
}

func (a *App) DeleteAccount(ctx context.Context, id int64) error {
	return recordDelete(ctx, a, models.EntityAccount, a.storages.Accounts, id)
}

func (a *App) CreateAccountGroup(ctx context.Context, req models.AccountGroupCreateRequest) (models.AccountGroup, error) {
	return recordCreate(ctx, a, models.EntityAccountGroup, a.storages.AccountGroups, req,
		func(localID int64, req models.AccountGroupCreateRequest) models.AccountGroup {
			return models.AccountGroup{
				ID:        localID,
				Name:      req.Name,
				SortOrder: req.SortOrder,
				UpdatedAt: time.Now().UTC(),
			}
		})
}

func (a *App) UpdateAccountGroup(ctx context.Context, id int64, req models.AccountGroupUpdateRequest) (models.AccountGroup, error) {
	return recordUpdate(ctx, a, models.EntityAccountGroup, a.storages.AccountGroups, id, req,
		func(current models.AccountGroup, req models.AccountGroupUpdateRequest) models.AccountGroup {
			if req.Name != nil {
				current.Name = *req.Name
			}
			if req.SortOrder != nil {
				current.SortOrder = *req.SortOrder
			}
			current.UpdatedAt = time.Now().UTC()
			return current
		})
}

func (a *App) DeleteAccountGroup(ctx context.Context, id int64) error {
	return recordDelete(ctx, a, models.EntityAccountGroup, a.storages.AccountGroups, id)
}

func (a *App) CreateCategory(ctx context.Context, req models.CategoryCreateRequest) (models.Category, error) {
	return recordCreate(ctx, a, models.EntityCategory, a.storages.Categories, req,
		func(localID int64, req models.CategoryCreateRequest) models.Category {
			return models.Category{
				ID:        localID,
				Name:      req.Name,
				Kind:      req.Kind,
				Icon:      req.Icon,
				SortOrder: req.SortOrder,
				UpdatedAt: time.Now().UTC(),
			}
		})
}

func (a *App) UpdateCategory(ctx context.Context, id int64, req models.CategoryUpdateRequest) (models.Category, error) {
	return recordUpdate(ctx, a, models.EntityCategory, a.storages.Categories, id, req,
		func(current models.Category, req models.CategoryUpdateRequest) models.Category {
			if req.Name != nil {
				current.Name = *req.Name
			}
			if req.Icon != nil {
				current.Icon = *req.Icon
			}
			if req.SortOrder != nil {
				current.SortOrder = *req.SortOrder
			}
			current.UpdatedAt = time.Now().UTC()
			return current
		})
}

func (a *App) DeleteCategory(ctx context.Context, id int64) error {
	return recordDelete(ctx, a, models.EntityCategory, a.storages.Categories, id)
}

func (a *App) CreateTransaction(ctx context.Context, req models.TransactionCreateRequest) (models.Transaction, error) {
	return recordCreate(ctx, a, models.EntityTransaction, a.storages.Transactions, req,
		func(localID int64, req models.TransactionCreateRequest) models.Transaction {
			return models.Transaction{
				ID:          localID,
				AccountID:   req.AccountID,
				CategoryID:  req.CategoryID,
				AmountCents: req.AmountCents,
				Note:        req.Note,
				OccurredAt:  req.OccurredAt,
				UpdatedAt:   time.Now().UTC(),
			}
		})
}

func (a *App) UpdateTransaction(ctx context.Context, id int64, req models.TransactionUpdateRequest) (models.Transaction, error) {
	return recordUpdate(ctx, a, models.EntityTransaction, a.storages.Transactions, id, req,
		func(current models.Transaction, req models.TransactionUpdateRequest) models.Transaction {
			if req.AccountID != nil {
				current.AccountID = *req.AccountID
			}
			if req.CategoryID != nil {
				current.CategoryID = *req.CategoryID
			}
			if req.AmountCents != nil {
				current.AmountCents = *req.AmountCents
			}
			if req.Note != nil {
				current.Note = *req.Note
			}
			if req.OccurredAt != nil {
				current.OccurredAt = *req.OccurredAt
			}
			current.UpdatedAt = time.Now().UTC()
			return current
		})
}

func (a *App) DeleteTransaction(ctx context.Context, id int64) error {
	return recordDelete(ctx, a, models.EntityTransaction, a.storages.Transactions, id)
}
