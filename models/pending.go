package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PendingOperation is one queued local mutation awaiting remote replay.
// Rows are created when a user mutation is recorded and are mutated to
// completed/failed only by the owning entity sync handler's caller.
// Rows are never deleted by the sync core; completed history is kept
// for audit and may be pruned by a higher-level retention policy.
type PendingOperation struct {
	// LocalID is the queue-internal identity of the row, stable and
	// monotonic (sqlite rowid).
	LocalID int64 `json:"local_id"`

	EntityType    EntityType    `json:"entity_type"`
	OperationType OperationType `json:"operation_type"`

	// LocalEntityID is the negative placeholder id assigned at offline
	// creation time. Meaningful only for create operations; zero otherwise.
	LocalEntityID int64 `json:"local_entity_id,omitempty"`

	// EntityID is the server-assigned id. Zero until a create succeeds;
	// populated for update/delete of already-synced entities.
	EntityID int64 `json:"entity_id,omitempty"`

	// Payload is the serialized request body needed to replay the
	// mutation. Opaque to everything except the matching handler.
	Payload json.RawMessage `json:"payload,omitempty"`

	Status OperationStatus `json:"status"`

	// Attempts counts retryable failures accumulated across drains.
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveEntityID returns the identifier that names the entity this
// operation targets: the server id when known, else the local placeholder.
func (op PendingOperation) EffectiveEntityID() int64 {
	if op.EntityID != 0 {
		return op.EntityID
	}
	return op.LocalEntityID
}

// Identity is the per-entity serialization key used by the queue to
// guarantee that operations for the same entity are never reordered
// or run concurrently.
func (op PendingOperation) Identity() string {
	return fmt.Sprintf("%s:%d", op.EntityType, op.EffectiveEntityID())
}
