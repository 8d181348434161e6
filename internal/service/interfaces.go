package service

import (
	"context"

	"github.com/finsible/sync-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// EntitySyncHandler replays queued mutations of one entity kind
// against the remote service and keeps the local cache consistent
// with the outcome. One handler instance exists per entity kind.
type EntitySyncHandler interface {
	EntityType() models.EntityType

	// Apply replays one pending operation. On a successful create it
	// returns the server-assigned id so the caller can redirect later
	// operations that still reference the local placeholder; for
	// update/delete the returned id is zero.
	Apply(ctx context.Context, op models.PendingOperation) (int64, error)

	// ApplyDelta applies one server-authored change to the local
	// cache: a removal, or a full replacement of the entity state.
	ApplyDelta(ctx context.Context, delta models.EntityDelta) error

	// Refetch replaces the locally cached server-owned rows with the
	// remote state. Rows with negative (not yet synced) ids survive.
	Refetch(ctx context.Context) error
}

// LocalIDGenerator hands out strictly decreasing negative placeholder
// ids for entities created offline. Every issued id is persisted
// before it is returned, so ids are never reused across restarts.
type LocalIDGenerator interface {
	Next(ctx context.Context) (int64, error)
}

// IsLocalID reports whether id is a client-issued placeholder rather
// than a server-assigned identifier.
func IsLocalID(id int64) bool {
	return id < 0
}
