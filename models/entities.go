package models

import "time"

// Account is a single financial account belonging to the user.
// Amounts are stored in minor currency units (cents) to avoid
// floating-point drift.
type Account struct {
	// ID is the server-assigned identifier. Negative values mark
	// accounts created offline that have not been synced yet.
	ID int64 `json:"id"`

	// GroupID references the AccountGroup this account belongs to.
	// Supplied by the client on creation; the server does not always
	// echo it back, so sync handlers must carry it forward.
	GroupID int64 `json:"group_id,omitempty"`

	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	BalanceCents int64     `json:"balance_cents"`
	Archived     bool      `json:"archived"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountGroup is a user-defined grouping of accounts.
type AccountGroup struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryKind is the local-only type tag of a category. The update
// endpoint of the remote service does not return it, so it must be
// re-attached from local state after every update.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Category is an income or expense category assignable to transactions.
type Category struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Kind      CategoryKind `json:"kind,omitempty"`
	Icon      string       `json:"icon,omitempty"`
	SortOrder int          `json:"sort_order"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Transaction is a single money movement on an account.
type Transaction struct {
	ID int64 `json:"id"`

	// AccountID and CategoryID are client-supplied foreign keys.
	// Like Account.GroupID they are not guaranteed to be echoed by
	// the server on create responses.
	AccountID  int64 `json:"account_id"`
	CategoryID int64 `json:"category_id,omitempty"`

	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
