package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// ConflictResolver applies server-authored changes to the local cache.
// The server state always wins; when the overwritten entity also had a
// queued local change, the resolver emits a notice so the user learns
// their edit was discarded.
type ConflictResolver struct {
	pending  store.PendingOperationRepository
	handlers *Handlers
	notices  *watch.Value[models.Notice]
	logger   *logger.Logger
}

func NewConflictResolver(pending store.PendingOperationRepository, handlers *Handlers, log *logger.Logger) *ConflictResolver {
	return &ConflictResolver{
		pending:  pending,
		handlers: handlers,
		notices:  watch.NewValue(models.Notice{}),
		logger:   log,
	}
}

// Notices exposes the most recent conflict notice as an observable.
// Consumption is fire-and-forget; the resolver never waits for anyone
// to read a notice.
func (r *ConflictResolver) Notices() *watch.Value[models.Notice] { return r.notices }

// Apply applies a batch of server deltas. Each delta is applied
// independently: a failing delta is logged and skipped, the rest of
// the batch still goes through. The returned notices describe local
// changes that lost to the server state.
func (r *ConflictResolver) Apply(ctx context.Context, deltas []models.EntityDelta) ([]models.Notice, error) {
	var (
		produced []models.Notice
		applyErr error
	)

	for _, delta := range deltas {
		handler, err := r.handlers.ForType(delta.EntityType)
		if err != nil {
			applyErr = errors.Join(applyErr, err)
			continue
		}

		hadPending, err := r.pending.HasPendingForEntity(ctx, delta.EntityType, delta.EntityID)
		if err != nil {
			applyErr = errors.Join(applyErr, fmt.Errorf("check pending for %s %d: %w", delta.EntityType, delta.EntityID, err))
			continue
		}

		if err := handler.ApplyDelta(ctx, delta); err != nil {
			applyErr = errors.Join(applyErr, fmt.Errorf("apply delta for %s %d: %w", delta.EntityType, delta.EntityID, err))
			continue
		}

		if !hadPending {
			continue
		}

		notice := conflictNotice(delta)
		produced = append(produced, notice)
		r.notices.Set(notice)
		r.logger.Warn().
			Str("entity_type", string(delta.EntityType)).
			Int64("entity_id", delta.EntityID).
			Bool("deleted", delta.Deleted).
			Msg("local change lost to server state")
	}

	return produced, applyErr
}

func conflictNotice(delta models.EntityDelta) models.Notice {
	if delta.Deleted {
		return models.Notice{
			Title: "Change discarded",
			Body:  fmt.Sprintf("The %s you edited was deleted on another device.", delta.EntityType),
		}
	}
	return models.Notice{
		Title: "Change overwritten",
		Body:  fmt.Sprintf("The %s you edited was updated on another device; the newer version was kept.", delta.EntityType),
	}
}
