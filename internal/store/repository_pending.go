package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/models"
)

var pendingColumns = []string{
	"local_id", "entity_type", "operation_type", "local_entity_id",
	"entity_id", "payload", "status", "attempts", "last_error",
	"created_at", "updated_at",
}

type pendingOperationRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewPendingOperationRepository(db *DB, log *logger.Logger) PendingOperationRepository {
	return &pendingOperationRepository{db: db, logger: log}
}

func (r *pendingOperationRepository) Append(ctx context.Context, op models.PendingOperation) (int64, error) {
	now := time.Now().UTC()
	if op.Status == "" {
		op.Status = models.StatusPending
	}

	query, args, err := sq.Insert("pending_operations").
		Columns(pendingColumns[1:]...).
		Values(
			string(op.EntityType), string(op.OperationType), op.LocalEntityID,
			op.EntityID, []byte(op.Payload), string(op.Status), op.Attempts,
			op.LastError, now, now,
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build pending append query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).
			Str("func", "pendingOperationRepository.Append").
			Str("entity_type", string(op.EntityType)).
			Str("operation_type", string(op.OperationType)).
			Msg("failed to append pending operation")
		return 0, fmt.Errorf("append pending operation: %w", err)
	}

	localID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("pending operation insert id: %w", err)
	}
	return localID, nil
}

func (r *pendingOperationRepository) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	query, args, err := sq.Select(pendingColumns...).
		From("pending_operations").
		Where(sq.Eq{"status": string(models.StatusPending)}).
		OrderBy("local_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending operations: %w", err)
	}
	defer rows.Close()

	var ops []models.PendingOperation
	for rows.Next() {
		var op models.PendingOperation
		var entityType, opType, status string
		var payload []byte

		err = rows.Scan(
			&op.LocalID, &entityType, &opType, &op.LocalEntityID,
			&op.EntityID, &payload, &status, &op.Attempts, &op.LastError,
			&op.CreatedAt, &op.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending operation row: %w", err)
		}

		op.EntityType = models.EntityType(entityType)
		op.OperationType = models.OperationType(opType)
		op.Status = models.OperationStatus(status)
		op.Payload = payload
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending operation rows: %w", err)
	}

	return ops, nil
}

func (r *pendingOperationRepository) CountPending(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("pending_operations").
		Where(sq.Eq{"status": string(models.StatusPending)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build pending count query: %w", err)
	}

	var count int
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending operations: %w", err)
	}
	return count, nil
}

func (r *pendingOperationRepository) CountPendingByKind(ctx context.Context, opType models.OperationType, entityType models.EntityType) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("pending_operations").
		Where(sq.Eq{
			"status":         string(models.StatusPending),
			"operation_type": string(opType),
			"entity_type":    string(entityType),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build pending count-by-kind query: %w", err)
	}

	var count int64
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending operations by kind: %w", err)
	}
	return count, nil
}

func (r *pendingOperationRepository) HasPendingForEntity(ctx context.Context, entityType models.EntityType, entityID int64) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("pending_operations").
		Where(sq.Eq{
			"status":      string(models.StatusPending),
			"entity_type": string(entityType),
		}).
		Where(sq.Or{sq.Eq{"entity_id": entityID}, sq.Eq{"local_entity_id": entityID}}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build pending-for-entity query: %w", err)
	}

	var count int64
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query pending operations for entity: %w", err)
	}
	return count > 0, nil
}

func (r *pendingOperationRepository) MarkCompleted(ctx context.Context, localID int64) error {
	return r.setStatus(ctx, localID, models.StatusCompleted, "")
}

func (r *pendingOperationRepository) MarkFailed(ctx context.Context, localID int64, lastError string) error {
	return r.setStatus(ctx, localID, models.StatusFailed, lastError)
}

func (r *pendingOperationRepository) IncrementAttempts(ctx context.Context, localID int64, lastError string) error {
	query, args, err := sq.Update("pending_operations").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", lastError).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"local_id": localID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pending increment query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("increment attempts for pending operation %d: %w", localID, err)
	}
	return nil
}

func (r *pendingOperationRepository) setStatus(ctx context.Context, localID int64, status models.OperationStatus, lastError string) error {
	query, args, err := sq.Update("pending_operations").
		Set("status", string(status)).
		Set("last_error", lastError).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"local_id": localID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pending status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).
			Str("func", "pendingOperationRepository.setStatus").
			Int64("local_id", localID).
			Str("status", string(status)).
			Msg("failed to update pending operation status")
		return fmt.Errorf("set pending operation %d status: %w", localID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pending operation %d rows affected: %w", localID, err)
	}
	if affected == 0 {
		return fmt.Errorf("pending operation %d: %w", localID, ErrNotFound)
	}
	return nil
}
