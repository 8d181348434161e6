package store

import (
	"context"
	"fmt"

	"github.com/finsible/sync-core/internal/config"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// Storages groups every client-side repository into a single value
// passed around the service layer, plus the observable change stream
// repositories publish into.
type Storages struct {
	Accounts      AccountRepository
	AccountGroups AccountGroupRepository
	Categories    CategoryRepository
	Transactions  TransactionRepository

	Pending PendingOperationRepository
	Counter CounterRepository
	Session SessionRepository

	// Events carries one ChangeEvent per local-store mutation.
	// Presentation layers subscribe to refresh what they display.
	Events *watch.Value[ChangeEvent]

	db *DB
}

// Close releases the underlying database handle. Safe to call on
// storages assembled without one (tests wiring fakes directly).
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewStorages initialises the client storage layer: opens the sqlite
// database at cfg.DSN (creating the file if needed), runs pending goose
// migrations, and wires every repository.
func NewStorages(cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewStoragesWithDB(db, log), nil
}

// NewStoragesWithDB wires repositories onto an already opened (and
// migrated) database. Split out for tests.
func NewStoragesWithDB(db *DB, log *logger.Logger) *Storages {
	events := watch.NewValue(ChangeEvent{})

	return &Storages{
		Accounts:      newEntityRepository(db, accountSpec(), events, log),
		AccountGroups: newEntityRepository(db, accountGroupSpec(), events, log),
		Categories:    newEntityRepository(db, categorySpec(), events, log),
		Transactions:  newEntityRepository(db, transactionSpec(), events, log),
		Pending:       NewPendingOperationRepository(db, log),
		Counter:       NewCounterRepository(db, log),
		Session:       NewSessionRepository(db, log),
		Events:        events,
		db:            db,
	}
}

// EntityCount returns the number of locally stored rows for one entity
// kind; used by the integrity checker and the empty-store probe.
func (s *Storages) EntityCount(ctx context.Context, t models.EntityType) (int64, error) {
	switch t {
	case models.EntityAccount:
		return s.Accounts.Count(ctx)
	case models.EntityAccountGroup:
		return s.AccountGroups.Count(ctx)
	case models.EntityCategory:
		return s.Categories.Count(ctx)
	case models.EntityTransaction:
		return s.Transactions.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown entity type %q", t)
	}
}
