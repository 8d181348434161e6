package models

import "encoding/json"

// EntitySnapshot is a point-in-time count of entities per kind as
// reported by the remote service. Immutable; created per integrity
// check and discarded after use.
type EntitySnapshot struct {
	Categories    int64 `json:"categories"`
	AccountGroups int64 `json:"account_groups"`
	Accounts      int64 `json:"accounts"`
	Transactions  int64 `json:"transactions"`
}

// CountFor returns the snapshot count for the given entity kind.
func (s EntitySnapshot) CountFor(t EntityType) int64 {
	switch t {
	case EntityCategory:
		return s.Categories
	case EntityAccountGroup:
		return s.AccountGroups
	case EntityAccount:
		return s.Accounts
	case EntityTransaction:
		return s.Transactions
	}
	return 0
}

// IntegrityReport is the result of one integrity verification pass.
// Created fresh per check; never mutated.
type IntegrityReport struct {
	CategoriesMatch    bool `json:"categories_match"`
	AccountGroupsMatch bool `json:"account_groups_match"`
	AccountsMatch      bool `json:"accounts_match"`
	TransactionsMatch  bool `json:"transactions_match"`

	ServerSnapshot *EntitySnapshot `json:"server_snapshot,omitempty"`

	// NetworkAvailable is false when the snapshot fetch itself failed.
	// Absence of information is not evidence of divergence, so a report
	// without a network is never a discrepancy report.
	NetworkAvailable bool `json:"network_available"`
}

// MatchFor returns the match flag for the given entity kind.
func (r IntegrityReport) MatchFor(t EntityType) bool {
	switch t {
	case EntityCategory:
		return r.CategoriesMatch
	case EntityAccountGroup:
		return r.AccountGroupsMatch
	case EntityAccount:
		return r.AccountsMatch
	case EntityTransaction:
		return r.TransactionsMatch
	}
	return true
}

// HasDiscrepancy reports whether any entity kind diverged from the
// server snapshot. Always false when the network was unavailable.
func (r IntegrityReport) HasDiscrepancy() bool {
	if !r.NetworkAvailable {
		return false
	}
	return !r.CategoriesMatch || !r.AccountGroupsMatch || !r.AccountsMatch || !r.TransactionsMatch
}

// CanResolve reports whether a resolution pass is both needed and possible.
func (r IntegrityReport) CanResolve() bool {
	return r.NetworkAvailable && r.HasDiscrepancy()
}

// MismatchedKinds lists every entity kind whose count diverged,
// in the canonical AllEntityTypes order.
func (r IntegrityReport) MismatchedKinds() []EntityType {
	var kinds []EntityType
	for _, t := range AllEntityTypes {
		if !r.MatchFor(t) {
			kinds = append(kinds, t)
		}
	}
	return kinds
}

// EntityDelta is one server-pushed change description: either a
// deletion, or a full replacement state for a changed entity.
type EntityDelta struct {
	EntityType EntityType      `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Deleted    bool            `json:"deleted"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Notice is a short, non-blocking user-visible message emitted by the
// conflict resolver and the integrity resolver. Fire-and-forget: the
// core produces notices, it does not know who consumes them.
type Notice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
