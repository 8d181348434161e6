package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

// entitySyncHandler is the generic EntitySyncHandler implementation,
// instantiated once per entity kind. id extracts the primary key of
// an entity value.
type entitySyncHandler[E any, CR any, UR any] struct {
	entityType models.EntityType
	remote     adapter.EntityService[E, CR, UR]
	local      store.EntityRepository[E]
	id         func(E) int64
	logger     *logger.Logger
}

func (h *entitySyncHandler[E, CR, UR]) EntityType() models.EntityType {
	return h.entityType
}

func (h *entitySyncHandler[E, CR, UR]) Apply(ctx context.Context, op models.PendingOperation) (int64, error) {
	switch op.OperationType {
	case models.OperationCreate:
		return h.applyCreate(ctx, op)
	case models.OperationUpdate:
		return 0, h.applyUpdate(ctx, op)
	case models.OperationDelete:
		return 0, h.applyDelete(ctx, op)
	default:
		return 0, adapter.ValidationError(fmt.Sprintf("unknown operation type %q", op.OperationType), nil)
	}
}

// applyCreate replays an offline create. The server response is merged
// over the local placeholder row so that fields the server does not
// echo back survive, then the row is atomically re-keyed from the
// negative placeholder id to the server-assigned one.
func (h *entitySyncHandler[E, CR, UR]) applyCreate(ctx context.Context, op models.PendingOperation) (int64, error) {
	var req CR
	if err := json.Unmarshal(op.Payload, &req); err != nil {
		return 0, adapter.ValidationError(fmt.Sprintf("decode %s create payload", h.entityType), err)
	}

	created, err := h.remote.Create(ctx, req)
	if err != nil {
		return 0, err
	}

	merged, err := h.mergeWithLocal(ctx, created, op.LocalEntityID)
	if err != nil {
		return 0, err
	}

	serverID := h.id(created)
	if err := h.local.RemapID(ctx, op.LocalEntityID, serverID, merged); err != nil {
		return 0, fmt.Errorf("remap %s %d to %d: %w", h.entityType, op.LocalEntityID, serverID, err)
	}

	return serverID, nil
}

func (h *entitySyncHandler[E, CR, UR]) applyUpdate(ctx context.Context, op models.PendingOperation) error {
	var req UR
	if err := json.Unmarshal(op.Payload, &req); err != nil {
		return adapter.ValidationError(fmt.Sprintf("decode %s update payload", h.entityType), err)
	}

	updated, err := h.remote.Update(ctx, op.EffectiveEntityID(), req)
	if err != nil {
		return err
	}

	merged, err := h.mergeWithLocal(ctx, updated, op.EffectiveEntityID())
	if err != nil {
		return err
	}

	if err := h.local.Upsert(ctx, merged); err != nil {
		return fmt.Errorf("store updated %s: %w", h.entityType, err)
	}
	return nil
}

// applyDelete treats a remote 404 as success: the entity is already
// gone, which is exactly the state the operation wanted.
func (h *entitySyncHandler[E, CR, UR]) applyDelete(ctx context.Context, op models.PendingOperation) error {
	if err := h.remote.Delete(ctx, op.EffectiveEntityID()); err != nil && !adapter.IsNotFound(err) {
		return err
	}

	if err := h.local.RemoveByID(ctx, op.EffectiveEntityID()); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("remove %s %d: %w", h.entityType, op.EffectiveEntityID(), err)
	}
	return nil
}

// mergeWithLocal fills zero-valued fields of the server response from
// the local row, preserving locally known state the server response
// omits. A missing local row leaves the server response as is.
func (h *entitySyncHandler[E, CR, UR]) mergeWithLocal(ctx context.Context, remote E, localID int64) (E, error) {
	localRow, err := h.local.Get(ctx, localID)
	if errors.Is(err, store.ErrNotFound) {
		return remote, nil
	}
	if err != nil {
		return remote, fmt.Errorf("load local %s %d: %w", h.entityType, localID, err)
	}

	if err := mergo.Merge(&remote, localRow); err != nil {
		return remote, fmt.Errorf("merge %s state: %w", h.entityType, err)
	}
	return remote, nil
}

func (h *entitySyncHandler[E, CR, UR]) ApplyDelta(ctx context.Context, delta models.EntityDelta) error {
	if delta.Deleted {
		err := h.local.RemoveByID(ctx, delta.EntityID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	var entity E
	if err := json.Unmarshal(delta.Payload, &entity); err != nil {
		return adapter.ValidationError(fmt.Sprintf("decode %s delta payload", h.entityType), err)
	}
	return h.local.Upsert(ctx, entity)
}

// Refetch replaces the server-owned portion of the local cache with
// the remote state. Rows with negative ids are offline creates the
// server has never seen and must not be touched.
func (h *entitySyncHandler[E, CR, UR]) Refetch(ctx context.Context) error {
	remoteRows, err := h.remote.List(ctx)
	if err != nil {
		return err
	}

	localRows, err := h.local.List(ctx)
	if err != nil {
		return fmt.Errorf("list local %s rows: %w", h.entityType, err)
	}

	remoteIDs := make(map[int64]struct{}, len(remoteRows))
	for _, row := range remoteRows {
		remoteIDs[h.id(row)] = struct{}{}
	}

	for _, row := range localRows {
		rowID := h.id(row)
		if IsLocalID(rowID) {
			continue
		}
		if _, ok := remoteIDs[rowID]; ok {
			continue
		}
		if err := h.local.RemoveByID(ctx, rowID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("remove stale %s %d: %w", h.entityType, rowID, err)
		}
	}

	for _, row := range remoteRows {
		if err := h.local.Upsert(ctx, row); err != nil {
			return fmt.Errorf("store fetched %s %d: %w", h.entityType, h.id(row), err)
		}
	}

	h.logger.Debug().
		Str("entity_type", string(h.entityType)).
		Int("rows", len(remoteRows)).
		Msg("refetched entity cache")
	return nil
}
