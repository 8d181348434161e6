package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// tableSpec describes how one entity kind maps onto its sqlite table.
// The first column must be the id column.
type tableSpec[E any] struct {
	entityType models.EntityType
	table      string
	columns    []string
	values     func(E) []any
	scan       func(rowScanner) (E, error)
}

// entityRepository is the shared sqlite implementation behind every
// EntityRepository. Per-kind behavior lives entirely in the tableSpec.
type entityRepository[E any] struct {
	db     *DB
	spec   tableSpec[E]
	events *watch.Value[ChangeEvent]
	logger *logger.Logger
}

func newEntityRepository[E any](db *DB, spec tableSpec[E], events *watch.Value[ChangeEvent], log *logger.Logger) *entityRepository[E] {
	return &entityRepository[E]{db: db, spec: spec, events: events, logger: log}
}

func (r *entityRepository[E]) Get(ctx context.Context, id int64) (E, error) {
	var zero E

	query, args, err := sq.Select(r.spec.columns...).
		From(r.spec.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build %s get query: %w", r.spec.table, err)
	}

	entity, err := r.spec.scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%s id=%d: %w", r.spec.table, id, ErrNotFound)
		}
		return zero, fmt.Errorf("scan %s row: %w", r.spec.table, err)
	}

	return entity, nil
}

func (r *entityRepository[E]) List(ctx context.Context) ([]E, error) {
	query, args, err := sq.Select(r.spec.columns...).
		From(r.spec.table).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s list query: %w", r.spec.table, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s rows: %w", r.spec.table, err)
	}
	defer rows.Close()

	var items []E
	for rows.Next() {
		item, err := r.spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", r.spec.table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", r.spec.table, err)
	}

	return items, nil
}

func (r *entityRepository[E]) Upsert(ctx context.Context, entity E) error {
	values := r.spec.values(entity)

	query, args, err := sq.Insert(r.spec.table).
		Columns(r.spec.columns...).
		Values(values...).
		Suffix(r.upsertSuffix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s upsert query: %w", r.spec.table, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).
			Str("func", "entityRepository.Upsert").
			Str("table", r.spec.table).
			Msg("failed to execute upsert")
		return fmt.Errorf("upsert %s row: %w", r.spec.table, err)
	}

	r.publish(ChangeEvent{EntityType: r.spec.entityType, Kind: ChangeUpsert, EntityID: values[0].(int64)})
	return nil
}

func (r *entityRepository[E]) RemoveByID(ctx context.Context, id int64) error {
	query, args, err := sq.Delete(r.spec.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s delete query: %w", r.spec.table, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).
			Str("func", "entityRepository.RemoveByID").
			Str("table", r.spec.table).
			Int64("id", id).
			Msg("failed to execute delete")
		return fmt.Errorf("delete %s row id=%d: %w", r.spec.table, id, err)
	}

	r.publish(ChangeEvent{EntityType: r.spec.entityType, Kind: ChangeRemove, EntityID: id})
	return nil
}

// RemapID swaps the row keyed by oldID for updated inside one
// transaction. updated must already carry the new server id in its id
// field; newID is used for the change event and as a consistency check
// against callers passing mismatched arguments.
func (r *entityRepository[E]) RemapID(ctx context.Context, oldID, newID int64, updated E) error {
	values := r.spec.values(updated)
	if got := values[0].(int64); got != newID {
		return fmt.Errorf("remap %s: updated entity id=%d does not match new id=%d", r.spec.table, got, newID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s remap tx: %w", r.spec.table, err)
	}
	defer tx.Rollback()

	deleteQuery, deleteArgs, err := sq.Delete(r.spec.table).
		Where(sq.Eq{"id": oldID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s remap delete query: %w", r.spec.table, err)
	}
	if _, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("remap %s: delete old row id=%d: %w", r.spec.table, oldID, err)
	}

	insertQuery, insertArgs, err := sq.Insert(r.spec.table).
		Columns(r.spec.columns...).
		Values(values...).
		Suffix(r.upsertSuffix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s remap insert query: %w", r.spec.table, err)
	}
	if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("remap %s: insert new row id=%d: %w", r.spec.table, newID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s remap tx: %w", r.spec.table, err)
	}

	r.publish(ChangeEvent{EntityType: r.spec.entityType, Kind: ChangeRemap, EntityID: oldID, NewEntityID: newID})
	return nil
}

func (r *entityRepository[E]) Count(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(r.spec.table).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count query: %w", r.spec.table, err)
	}

	var count int64
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", r.spec.table, err)
	}

	return count, nil
}

func (r *entityRepository[E]) upsertSuffix() string {
	assigns := make([]string, 0, len(r.spec.columns)-1)
	for _, col := range r.spec.columns[1:] {
		assigns = append(assigns, col+" = excluded."+col)
	}
	return "ON CONFLICT(id) DO UPDATE SET " + strings.Join(assigns, ", ")
}

func (r *entityRepository[E]) publish(ev ChangeEvent) {
	if r.events != nil {
		r.events.Set(ev)
	}
}

func accountSpec() tableSpec[models.Account] {
	return tableSpec[models.Account]{
		entityType: models.EntityAccount,
		table:      "accounts",
		columns:    []string{"id", "group_id", "name", "currency", "balance_cents", "archived", "updated_at"},
		values: func(a models.Account) []any {
			return []any{a.ID, a.GroupID, a.Name, a.Currency, a.BalanceCents, a.Archived, a.UpdatedAt}
		},
		scan: func(row rowScanner) (models.Account, error) {
			var a models.Account
			err := row.Scan(&a.ID, &a.GroupID, &a.Name, &a.Currency, &a.BalanceCents, &a.Archived, &a.UpdatedAt)
			return a, err
		},
	}
}

func accountGroupSpec() tableSpec[models.AccountGroup] {
	return tableSpec[models.AccountGroup]{
		entityType: models.EntityAccountGroup,
		table:      "account_groups",
		columns:    []string{"id", "name", "sort_order", "updated_at"},
		values: func(g models.AccountGroup) []any {
			return []any{g.ID, g.Name, g.SortOrder, g.UpdatedAt}
		},
		scan: func(row rowScanner) (models.AccountGroup, error) {
			var g models.AccountGroup
			err := row.Scan(&g.ID, &g.Name, &g.SortOrder, &g.UpdatedAt)
			return g, err
		},
	}
}

func categorySpec() tableSpec[models.Category] {
	return tableSpec[models.Category]{
		entityType: models.EntityCategory,
		table:      "categories",
		columns:    []string{"id", "name", "kind", "icon", "sort_order", "updated_at"},
		values: func(c models.Category) []any {
			return []any{c.ID, c.Name, string(c.Kind), c.Icon, c.SortOrder, c.UpdatedAt}
		},
		scan: func(row rowScanner) (models.Category, error) {
			var c models.Category
			var kind string
			err := row.Scan(&c.ID, &c.Name, &kind, &c.Icon, &c.SortOrder, &c.UpdatedAt)
			c.Kind = models.CategoryKind(kind)
			return c, err
		},
	}
}

func transactionSpec() tableSpec[models.Transaction] {
	return tableSpec[models.Transaction]{
		entityType: models.EntityTransaction,
		table:      "transactions",
		columns:    []string{"id", "account_id", "category_id", "amount_cents", "note", "occurred_at", "updated_at"},
		values: func(tr models.Transaction) []any {
			return []any{tr.ID, tr.AccountID, tr.CategoryID, tr.AmountCents, tr.Note, tr.OccurredAt, tr.UpdatedAt}
		},
		scan: func(row rowScanner) (models.Transaction, error) {
			var tr models.Transaction
			err := row.Scan(&tr.ID, &tr.AccountID, &tr.CategoryID, &tr.AmountCents, &tr.Note, &tr.OccurredAt, &tr.UpdatedAt)
			return tr, err
		},
	}
}
