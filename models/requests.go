package models

import "time"

// Request bodies replayed against the remote service. Each mirrors the
// entity it mutates minus the server-owned fields (id, updated_at).
// A serialized request is what a PendingOperation carries as payload.
//
// Update requests use pointer fields: nil means "leave unchanged", a
// non-nil pointer carries the new value even when it is the zero value.
// Un-archiving an account or zeroing a balance has to survive the trip
// through a queued JSON payload.

// Ptr returns a pointer to v, for building update requests inline.
func Ptr[T any](v T) *T { return &v }

type AccountCreateRequest struct {
	GroupID      int64  `json:"group_id,omitempty"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

type AccountUpdateRequest struct {
	GroupID      *int64  `json:"group_id,omitempty"`
	Name         *string `json:"name,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	BalanceCents *int64  `json:"balance_cents,omitempty"`
	Archived     *bool   `json:"archived,omitempty"`
}

type AccountGroupCreateRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order,omitempty"`
}

type AccountGroupUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

type CategoryCreateRequest struct {
	Name      string       `json:"name"`
	Kind      CategoryKind `json:"kind"`
	Icon      string       `json:"icon,omitempty"`
	SortOrder int          `json:"sort_order,omitempty"`
}

type CategoryUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

type TransactionCreateRequest struct {
	AccountID   int64     `json:"account_id"`
	CategoryID  int64     `json:"category_id,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type TransactionUpdateRequest struct {
	AccountID   *int64     `json:"account_id,omitempty"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Note        *string    `json:"note,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}
