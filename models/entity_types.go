package models

// EntityType identifies one of the four synchronized entity kinds.
// It is a closed set: every pending operation, server delta, and
// integrity count is keyed by exactly one of these values.
type EntityType string

const (
	// EntityAccount represents a single financial account
	// (checking, savings, cash, card, ...).
	EntityAccount EntityType = "account"

	// EntityAccountGroup represents a user-defined grouping of accounts.
	EntityAccountGroup EntityType = "account_group"

	// EntityCategory represents an income or expense category
	// assignable to transactions.
	EntityCategory EntityType = "category"

	// EntityTransaction represents a single money movement on an account.
	EntityTransaction EntityType = "transaction"
)

// AllEntityTypes lists every entity kind in the order used for
// bulk fetches and integrity reports.
var AllEntityTypes = []EntityType{
	EntityCategory,
	EntityAccountGroup,
	EntityAccount,
	EntityTransaction,
}

// Valid reports whether t is one of the four known entity kinds.
func (t EntityType) Valid() bool {
	switch t {
	case EntityAccount, EntityAccountGroup, EntityCategory, EntityTransaction:
		return true
	}
	return false
}

// OperationType identifies the kind of local mutation recorded in a
// pending operation.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// OperationStatus is the lifecycle state of a pending operation row.
type OperationStatus string

const (
	// StatusPending marks a mutation that has not yet been confirmed
	// by the server. Only pending rows participate in queue draining
	// and integrity arithmetic.
	StatusPending OperationStatus = "pending"

	// StatusCompleted marks a mutation the server has acknowledged.
	// Completed rows are retained for audit history.
	StatusCompleted OperationStatus = "completed"

	// StatusFailed marks a mutation that was rejected with a
	// non-retryable error or exhausted its retry budget.
	StatusFailed OperationStatus = "failed"
)

// SyncState is the coarse queue state exposed to presentation layers.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncError   SyncState = "error"
)
