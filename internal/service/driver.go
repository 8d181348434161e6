package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// Driver owns the pending-operation queue: it records new mutations
// and drains the queue against the remote service. Drains are
// serialized; operations within a drain run strictly in queue order,
// which also serializes operations targeting the same entity.
type Driver struct {
	pending       store.PendingOperationRepository
	handlers      *Handlers
	maxRowRetries int
	logger        *logger.Logger

	mu           sync.Mutex
	pendingCount *watch.Value[int]
	state        *watch.Value[models.SyncState]
}

func NewDriver(pending store.PendingOperationRepository, handlers *Handlers, maxRowRetries int, log *logger.Logger) *Driver {
	return &Driver{
		pending:       pending,
		handlers:      handlers,
		maxRowRetries: maxRowRetries,
		logger:        log,
		pendingCount:  watch.NewValue(0),
		state:         watch.NewValue(models.SyncIdle),
	}
}

// PendingCount exposes the number of queued operations as an
// observable value for presentation layers.
func (d *Driver) PendingCount() *watch.Value[int] { return d.pendingCount }

// State exposes the coarse sync state (idle, syncing, error).
func (d *Driver) State() *watch.Value[models.SyncState] { return d.state }

// Enqueue records one mutation in the durable queue. The operation is
// replayed by a later drain; recording never touches the network.
func (d *Driver) Enqueue(ctx context.Context, op models.PendingOperation) (int64, error) {
	if !op.EntityType.Valid() {
		return 0, fmt.Errorf("enqueue: invalid entity type %q", op.EntityType)
	}

	now := time.Now().UTC()
	op.Status = models.StatusPending
	op.Attempts = 0
	op.CreatedAt = now
	op.UpdatedAt = now

	localID, err := d.pending.Append(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s %s: %w", op.EntityType, op.OperationType, err)
	}

	d.refreshPendingCount(ctx)
	return localID, nil
}

// Drain replays every pending operation in queue order. A failing
// operation never blocks operations for other entities: its identity
// is skipped for the rest of the pass and the drain continues.
// Cancellation stops the pass immediately and leaves the remaining
// rows untouched for the next drain.
func (d *Driver) Drain(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log := &logger.Logger{Logger: d.logger.With().Str("pass_id", uuid.NewString()).Logger()}
	ctx = log.WithContext(ctx)

	ops, err := d.pending.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending operations: %w", err)
	}
	if len(ops) == 0 {
		d.state.Set(models.SyncIdle)
		return nil
	}

	d.state.Set(models.SyncSyncing)
	log.Info().Int("queued", len(ops)).Msg("draining pending operations")

	// Server ids assigned during this pass, keyed by the placeholder
	// id they replaced. Later operations recorded against a
	// placeholder are redirected before replay.
	remapped := make(map[string]int64)
	// Identities whose operation failed this pass. Later operations on
	// the same entity are skipped to keep per-entity order intact.
	blocked := make(map[string]struct{})

	var drainErr error

	for _, op := range ops {
		if ctx.Err() != nil {
			log.Info().Msg("drain cancelled, remaining operations stay queued")
			d.refreshPendingCount(ctx)
			d.state.Set(models.SyncIdle)
			return ctx.Err()
		}
		if _, skip := blocked[op.Identity()]; skip {
			continue
		}
		if op.EntityID == 0 && op.LocalEntityID != 0 {
			if serverID, ok := remapped[remapKey(op.EntityType, op.LocalEntityID)]; ok {
				op.EntityID = serverID
			}
		}

		serverID, err := d.applyOne(ctx, op)
		switch {
		case err == nil:
			if markErr := d.pending.MarkCompleted(ctx, op.LocalID); markErr != nil {
				drainErr = errors.Join(drainErr, markErr)
			}
			if serverID != 0 {
				remapped[remapKey(op.EntityType, op.LocalEntityID)] = serverID
			}

		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// The row was not marked either way: it stays queued for
			// the next drain.
			log.Info().Msg("drain cancelled mid-operation, row stays queued")
			d.refreshPendingCount(ctx)
			d.state.Set(models.SyncIdle)
			return err

		case adapter.IsUnauthorized(err):
			// Every following call would fail the same way.
			log.Warn().Msg("drain aborted: session rejected by server")
			d.refreshPendingCount(ctx)
			d.state.Set(models.SyncError)
			return err

		default:
			blocked[op.Identity()] = struct{}{}
			d.recordFailure(ctx, op, err)
		}
	}

	d.refreshPendingCount(ctx)

	if drainErr != nil {
		d.state.Set(models.SyncError)
		return drainErr
	}
	d.state.Set(models.SyncIdle)
	return nil
}

func (d *Driver) applyOne(ctx context.Context, op models.PendingOperation) (int64, error) {
	handler, err := d.handlers.ForType(op.EntityType)
	if err != nil {
		return 0, adapter.ValidationError(err.Error(), nil)
	}
	return handler.Apply(ctx, op)
}

// recordFailure decides the fate of a failed row: retryable failures
// stay queued with a bumped attempt counter until the retry budget is
// spent, everything else is marked failed permanently.
func (d *Driver) recordFailure(ctx context.Context, op models.PendingOperation, opErr error) {
	log := logger.FromContext(ctx)

	if adapter.IsRetryable(opErr) && op.Attempts+1 < d.maxRowRetries {
		if err := d.pending.IncrementAttempts(ctx, op.LocalID, opErr.Error()); err != nil {
			log.Err(err).Int64("local_id", op.LocalID).Msg("failed to bump attempt counter")
		}
		log.Warn().
			Err(opErr).
			Int64("local_id", op.LocalID).
			Str("identity", op.Identity()).
			Int("attempts", op.Attempts+1).
			Msg("operation failed, will retry on next drain")
		return
	}

	if err := d.pending.MarkFailed(ctx, op.LocalID, opErr.Error()); err != nil {
		log.Err(err).Int64("local_id", op.LocalID).Msg("failed to mark operation failed")
	}
	log.Error().
		Err(opErr).
		Int64("local_id", op.LocalID).
		Str("identity", op.Identity()).
		Msg("operation failed permanently")
}

func (d *Driver) refreshPendingCount(ctx context.Context) {
	count, err := d.pending.CountPending(ctx)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to refresh pending count")
		return
	}
	d.pendingCount.Set(count)
}

func remapKey(t models.EntityType, localEntityID int64) string {
	return fmt.Sprintf("%s:%d", t, localEntityID)
}
