package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsible/sync-core/internal/logger"
)

// LocalIDCounterName is the counter backing the negative local-id
// sequence.
const LocalIDCounterName = "local_id"

type counterRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewCounterRepository(db *DB, log *logger.Logger) CounterRepository {
	return &counterRepository{db: db, logger: log}
}

// Load returns the persisted value of the named counter, or 0 when the
// counter has never been stored.
func (r *counterRepository) Load(ctx context.Context, name string) (int64, error) {
	query, args, err := sq.Select("value").
		From("sync_counters").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build counter load query: %w", err)
	}

	var value int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load counter %q: %w", name, err)
	}

	return value, nil
}

func (r *counterRepository) Store(ctx context.Context, name string, value int64) error {
	query, args, err := sq.Insert("sync_counters").
		Columns("name", "value").
		Values(name, value).
		Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build counter store query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).
			Str("func", "counterRepository.Store").
			Str("name", name).
			Int64("value", value).
			Msg("failed to persist counter")
		return fmt.Errorf("store counter %q: %w", name, err)
	}

	return nil
}
