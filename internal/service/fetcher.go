package service

import (
	"context"
	"sync"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

// DataFetcher populates the local cache from the remote service.
// Fetching is best-effort: a failed fetch is logged and retried on the
// next call, never surfaced to the caller. The UI renders whatever is
// locally available either way.
type DataFetcher struct {
	handlers *Handlers
	storages *store.Storages
	logger   *logger.Logger

	mu      sync.Mutex
	fetched map[models.EntityType]bool
}

func NewDataFetcher(handlers *Handlers, storages *store.Storages, log *logger.Logger) *DataFetcher {
	return &DataFetcher{
		handlers: handlers,
		storages: storages,
		logger:   log,
		fetched:  make(map[models.EntityType]bool, len(models.AllEntityTypes)),
	}
}

// EnsureDataFetched fetches each entity kind at most once per app run.
// Kinds that already have local rows count as fetched: screens open
// instantly on cached data and the background sync keeps it fresh.
func (f *DataFetcher) EnsureDataFetched(ctx context.Context) {
	for _, handler := range f.handlers.All() {
		entityType := handler.EntityType()

		f.mu.Lock()
		done := f.fetched[entityType]
		f.mu.Unlock()
		if done {
			continue
		}

		count, err := f.storages.EntityCount(ctx, entityType)
		if err != nil {
			f.logger.Err(err).Str("entity_type", string(entityType)).Msg("could not inspect local cache")
			continue
		}
		if count > 0 {
			f.markFetched(entityType)
			continue
		}

		if err := handler.Refetch(ctx); err != nil {
			f.logger.Warn().Err(err).Str("entity_type", string(entityType)).Msg("initial fetch failed, will retry")
			continue
		}
		f.markFetched(entityType)
	}
}

// RefreshData force-refetches every entity kind from the server,
// regardless of what is cached. Failures are logged and skipped.
func (f *DataFetcher) RefreshData(ctx context.Context) {
	for _, handler := range f.handlers.All() {
		entityType := handler.EntityType()
		if err := handler.Refetch(ctx); err != nil {
			f.logger.Warn().Err(err).Str("entity_type", string(entityType)).Msg("refresh failed")
			continue
		}
		f.markFetched(entityType)
	}
}

func (f *DataFetcher) markFetched(t models.EntityType) {
	f.mu.Lock()
	f.fetched[t] = true
	f.mu.Unlock()
}
