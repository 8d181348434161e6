package service

import (
	"context"
	"fmt"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

// IntegrityChecker compares local entity counts against a server
// snapshot, correcting for mutations that are still queued locally.
type IntegrityChecker struct {
	snapshot adapter.SnapshotService
	storages *store.Storages
	logger   *logger.Logger
}

func NewIntegrityChecker(snapshot adapter.SnapshotService, storages *store.Storages, log *logger.Logger) *IntegrityChecker {
	return &IntegrityChecker{snapshot: snapshot, storages: storages, logger: log}
}

// ExpectedServerCount predicts the server-side count from the local
// one: queued creates exist locally but not yet remotely, queued
// deletes are already gone locally but still present remotely.
func ExpectedServerCount(local, pendingCreates, pendingDeletes int64) int64 {
	expected := local - pendingCreates + pendingDeletes
	if expected < 0 {
		return 0
	}
	return expected
}

// VerifyAll fetches a server snapshot and checks every entity kind.
// A failed snapshot fetch is not a discrepancy: without the network
// there is no evidence of divergence, and the report says so via
// NetworkAvailable. Count failures on the local side are absorbed the
// same way, so VerifyAll never reports a discrepancy it has no
// evidence for.
func (c *IntegrityChecker) VerifyAll(ctx context.Context) (models.IntegrityReport, error) {
	snapshot, err := c.snapshot.GetSnapshot(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("integrity check skipped: snapshot unavailable")
		return models.IntegrityReport{
			CategoriesMatch:    true,
			AccountGroupsMatch: true,
			AccountsMatch:      true,
			TransactionsMatch:  true,
			NetworkAvailable:   false,
		}, nil
	}

	report := models.IntegrityReport{
		ServerSnapshot:   &snapshot,
		NetworkAvailable: true,
	}

	for _, entityType := range models.AllEntityTypes {
		match, err := c.verifyKind(ctx, entityType, snapshot)
		if err != nil {
			// No counts, no verdict. An unreadable local store must
			// not turn into a discrepancy or abort the pass.
			c.logger.Warn().Err(err).
				Str("entity_type", string(entityType)).
				Msg("integrity check skipped for kind: local counts unavailable")
			match = true
		}

		switch entityType {
		case models.EntityCategory:
			report.CategoriesMatch = match
		case models.EntityAccountGroup:
			report.AccountGroupsMatch = match
		case models.EntityAccount:
			report.AccountsMatch = match
		case models.EntityTransaction:
			report.TransactionsMatch = match
		}
	}

	if report.HasDiscrepancy() {
		c.logger.Warn().
			Interface("mismatched", report.MismatchedKinds()).
			Msg("local store diverged from server snapshot")
	}

	return report, nil
}

func (c *IntegrityChecker) verifyKind(ctx context.Context, entityType models.EntityType, snapshot models.EntitySnapshot) (bool, error) {
	local, err := c.storages.EntityCount(ctx, entityType)
	if err != nil {
		return false, fmt.Errorf("count local %s rows: %w", entityType, err)
	}

	creates, err := c.storages.Pending.CountPendingByKind(ctx, models.OperationCreate, entityType)
	if err != nil {
		return false, fmt.Errorf("count pending %s creates: %w", entityType, err)
	}

	deletes, err := c.storages.Pending.CountPendingByKind(ctx, models.OperationDelete, entityType)
	if err != nil {
		return false, fmt.Errorf("count pending %s deletes: %w", entityType, err)
	}

	if local-creates+deletes < 0 {
		c.logger.Warn().
			Str("entity_type", string(entityType)).
			Int64("local", local).
			Int64("pending_creates", creates).
			Int64("pending_deletes", deletes).
			Msg("expected server count went negative, clamped to zero")
	}

	expected := ExpectedServerCount(local, creates, deletes)
	actual := snapshot.CountFor(entityType)

	c.logger.Debug().
		Str("entity_type", string(entityType)).
		Int64("local", local).
		Int64("expected_server", expected).
		Int64("actual_server", actual).
		Msg("integrity check")

	return expected == actual, nil
}
