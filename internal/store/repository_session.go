package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsible/sync-core/internal/logger"
)

type sessionRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewSessionRepository(db *DB, log *logger.Logger) SessionRepository {
	return &sessionRepository{db: db, logger: log}
}

func (r *sessionRepository) Save(ctx context.Context, token string) error {
	query, args, err := sq.Insert("session").
		Columns("id", "token", "saved_at").
		Values(1, token, time.Now().UTC()).
		Suffix("ON CONFLICT(id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build session save query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Load(ctx context.Context) (string, error) {
	query, args, err := sq.Select("token").
		From("session").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build session load query: %w", err)
	}

	var token string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLocalSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	return token, nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	query, args, err := sq.Delete("session").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session clear query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
