package service

import (
	"fmt"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

func NewAccountSyncHandler(remote adapter.AccountService, local store.AccountRepository, log *logger.Logger) EntitySyncHandler {
	return &entitySyncHandler[models.Account, models.AccountCreateRequest, models.AccountUpdateRequest]{
		entityType: models.EntityAccount,
		remote:     remote,
		local:      local,
		id:         func(a models.Account) int64 { return a.ID },
		logger:     log,
	}
}

func NewAccountGroupSyncHandler(remote adapter.AccountGroupService, local store.AccountGroupRepository, log *logger.Logger) EntitySyncHandler {
	return &entitySyncHandler[models.AccountGroup, models.AccountGroupCreateRequest, models.AccountGroupUpdateRequest]{
		entityType: models.EntityAccountGroup,
		remote:     remote,
		local:      local,
		id:         func(g models.AccountGroup) int64 { return g.ID },
		logger:     log,
	}
}

func NewCategorySyncHandler(remote adapter.CategoryService, local store.CategoryRepository, log *logger.Logger) EntitySyncHandler {
	return &entitySyncHandler[models.Category, models.CategoryCreateRequest, models.CategoryUpdateRequest]{
		entityType: models.EntityCategory,
		remote:     remote,
		local:      local,
		id:         func(c models.Category) int64 { return c.ID },
		logger:     log,
	}
}

func NewTransactionSyncHandler(remote adapter.TransactionService, local store.TransactionRepository, log *logger.Logger) EntitySyncHandler {
	return &entitySyncHandler[models.Transaction, models.TransactionCreateRequest, models.TransactionUpdateRequest]{
		entityType: models.EntityTransaction,
		remote:     remote,
		local:      local,
		id:         func(t models.Transaction) int64 { return t.ID },
		logger:     log,
	}
}

// Handlers is the per-kind handler registry consulted by the sync
// driver, the conflict resolver and the data fetcher.
type Handlers struct {
	byType map[models.EntityType]EntitySyncHandler
}

func NewHandlers(services *adapter.Services, storages *store.Storages, log *logger.Logger) *Handlers {
	registry := &Handlers{byType: make(map[models.EntityType]EntitySyncHandler, len(models.AllEntityTypes))}
	registry.register(NewAccountSyncHandler(services.Accounts, storages.Accounts, log))
	registry.register(NewAccountGroupSyncHandler(services.AccountGroups, storages.AccountGroups, log))
	registry.register(NewCategorySyncHandler(services.Categories, storages.Categories, log))
	registry.register(NewTransactionSyncHandler(services.Transactions, storages.Transactions, log))
	return registry
}

func (h *Handlers) register(handler EntitySyncHandler) {
	h.byType[handler.EntityType()] = handler
}

// ForType returns the handler owning the given entity kind.
func (h *Handlers) ForType(t models.EntityType) (EntitySyncHandler, error) {
	handler, ok := h.byType[t]
	if !ok {
		return nil, fmt.Errorf("no sync handler registered for entity type %q", t)
	}
	return handler, nil
}

// All returns the handlers in canonical dependency order: referenced
// kinds before referencing ones, so bulk operations never observe a
// dangling foreign key.
func (h *Handlers) All() []EntitySyncHandler {
	ordered := make([]EntitySyncHandler, 0, len(h.byType))
	for _, t := range models.AllEntityTypes {
		if handler, ok := h.byType[t]; ok {
			ordered = append(ordered, handler)
		}
	}
	return ordered
}
