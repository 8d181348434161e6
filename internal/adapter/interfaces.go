package adapter

import (
	"context"

	"github.com/finsible/sync-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// EntityService is the remote CRUD contract implemented once per entity
// kind. E is the entity, CR/UR the create and update request bodies.
// Every method either returns the server's authoritative result or a
// classified *SyncError.
type EntityService[E any, CR any, UR any] interface {
	Create(ctx context.Context, req CR) (E, error)
	Update(ctx context.Context, id int64, req UR) (E, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]E, error)
}

type (
	AccountService      = EntityService[models.Account, models.AccountCreateRequest, models.AccountUpdateRequest]
	AccountGroupService = EntityService[models.AccountGroup, models.AccountGroupCreateRequest, models.AccountGroupUpdateRequest]
	CategoryService     = EntityService[models.Category, models.CategoryCreateRequest, models.CategoryUpdateRequest]
	TransactionService  = EntityService[models.Transaction, models.TransactionCreateRequest, models.TransactionUpdateRequest]
)

// SnapshotService reports the server's authoritative per-kind entity
// counts, used by the integrity checker.
type SnapshotService interface {
	GetSnapshot(ctx context.Context) (models.EntitySnapshot, error)
}

// TokenProvider supplies the bearer token attached to every remote
// call. Implemented by the session manager; an empty token means the
// call goes out unauthenticated.
type TokenProvider interface {
	Token() string
}

// Services groups every remote service the sync core talks to.
type Services struct {
	Accounts      AccountService
	AccountGroups AccountGroupService
	Categories    CategoryService
	Transactions  TransactionService
	Snapshot      SnapshotService
}
