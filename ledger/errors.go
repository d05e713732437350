/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error values in one place. The pure calculators (stock.go,
  reconcile.go) never fail; everything here belongs to the I/O side:
  the record store, the rollover orchestrator, and the workflow.

POLICY:
  - Finalize-class actions (lock, approve) fail loudly.
  - Auxiliary reads (credit entries) degrade gracefully: a store that
    reports ErrCreditLedgerNotConfigured yields empty credit data, not
    a failed save.
  - Callers branch with errors.Is / errors.As, never by matching
    message text.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned by store reads when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrDayLocked is returned when staff attempt to mutate a locked day.
	ErrDayLocked = errors.New("ledger day is locked")

	// ErrDayNotLocked is returned for admin actions that require a
	// locked day (approve, unlock) on an open one.
	ErrDayNotLocked = errors.New("ledger day is not locked")

	// ErrDayAlreadyApproved is returned when locking or re-approving a
	// finalized day.
	ErrDayAlreadyApproved = errors.New("ledger day already approved")

	// ErrRequestNotPending is returned when resolving an approval
	// request that was already resolved.
	ErrRequestNotPending = errors.New("approval request is not pending")

	// ErrNotAuthorized is returned when a session's role does not
	// permit the attempted workflow action.
	ErrNotAuthorized = errors.New("role not authorized for this action")

	// ErrRolloverIncomplete wraps per-row carry-forward failures.
	ErrRolloverIncomplete = errors.New("carry-forward incomplete")

	// ErrCreditLedgerNotConfigured is the typed signal that the credit
	// entries / debtors subsystem is absent in this deployment. Readers
	// treat it as "no credit data"; it is never surfaced to users.
	ErrCreditLedgerNotConfigured = errors.New("credit ledger not configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RowFailure records one product's failed carry-forward.
type RowFailure struct {
	ProductID ProductID
	Err       error
}

// PartialRolloverError reports carry-forward failures for individual
// products. Remaining rows were still attempted; the invoking action
// (lock, approve) must treat the day as not safely rolled forward.
type PartialRolloverError struct {
	Shop     ShopID
	Target   DayDate
	Failures []RowFailure
}

func (e *PartialRolloverError) Error() string {
	return fmt.Sprintf("carry-forward to %s for shop %s failed for %d product(s)",
		e.Target, e.Shop, len(e.Failures))
}

func (e *PartialRolloverError) Unwrap() error { return ErrRolloverIncomplete }

// StateError reports a workflow action attempted in the wrong state.
type StateError struct {
	Shop   ShopID
	Date   DayDate
	State  DayState
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: day %s/%s is %s", e.Action, e.Shop, e.Date, e.State)
}

func (e *StateError) Unwrap() error {
	switch e.State {
	case StateApproved:
		return ErrDayAlreadyApproved
	case StateLockedPending:
		return ErrDayLocked
	default:
		return ErrDayNotLocked
	}
}
