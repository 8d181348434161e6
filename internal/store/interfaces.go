package store

import (
	"context"
	"errors"

	"github.com/finsible/sync-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("row not found")

	// ErrLocalSessionNotFound is returned when no session has been saved.
	ErrLocalSessionNotFound = errors.New("local session not found")
)

// EntityRepository is the local-store contract implemented once per
// entity kind. RemapID atomically replaces the row keyed by oldID with
// updated (keyed by its new server id) in a single transaction, so a
// reader never observes both or neither row.
type EntityRepository[E any] interface {
	Get(ctx context.Context, id int64) (E, error)
	List(ctx context.Context) ([]E, error)
	Upsert(ctx context.Context, entity E) error
	RemoveByID(ctx context.Context, id int64) error
	RemapID(ctx context.Context, oldID, newID int64, updated E) error
	Count(ctx context.Context) (int64, error)
}

type (
	AccountRepository      = EntityRepository[models.Account]
	AccountGroupRepository = EntityRepository[models.AccountGroup]
	CategoryRepository     = EntityRepository[models.Category]
	TransactionRepository  = EntityRepository[models.Transaction]
)

// PendingOperationRepository owns the durable mutation queue. Rows are
// appended when a user mutation is recorded and transition to
// completed/failed exactly once; they are never deleted here.
type PendingOperationRepository interface {
	// Append inserts a new pending row and returns its queue-internal id.
	Append(ctx context.Context, op models.PendingOperation) (int64, error)

	// ListPending returns all rows with status=pending in queue order.
	ListPending(ctx context.Context) ([]models.PendingOperation, error)

	// CountPending returns the number of rows with status=pending.
	CountPending(ctx context.Context) (int, error)

	// CountPendingByKind counts pending rows of one operation type for
	// one entity kind; used by the integrity arithmetic.
	CountPendingByKind(ctx context.Context, opType models.OperationType, entityType models.EntityType) (int64, error)

	// HasPendingForEntity reports whether an effective pending
	// operation exists for the given entity identity (matching either
	// the server id or the local placeholder id).
	HasPendingForEntity(ctx context.Context, entityType models.EntityType, entityID int64) (bool, error)

	MarkCompleted(ctx context.Context, localID int64) error
	MarkFailed(ctx context.Context, localID int64, lastError string) error

	// IncrementAttempts bumps the retry counter of a still-pending row.
	IncrementAttempts(ctx context.Context, localID int64, lastError string) error
}

// CounterRepository persists named monotonic counters. The local-id
// generator stores its strictly-decreasing counter here on every
// allocation, before the value is handed out.
type CounterRepository interface {
	Load(ctx context.Context, name string) (int64, error)
	Store(ctx context.Context, name string, value int64) error
}

// SessionRepository persists the auth token between launches.
type SessionRepository interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// ChangeKind describes one local-store mutation published on the
// change stream.
type ChangeKind string

const (
	ChangeUpsert ChangeKind = "upsert"
	ChangeRemove ChangeKind = "remove"
	ChangeRemap  ChangeKind = "remap"
)

// ChangeEvent is one entry of the observable local-store change stream
// consumed by presentation layers.
type ChangeEvent struct {
	EntityType models.EntityType
	Kind       ChangeKind
	EntityID   int64

	// NewEntityID is set only for remap events: the server-assigned id
	// that replaced EntityID.
	NewEntityID int64
}
