/*
workflow.go - Lock/approval state machine

PURPOSE:
  Governs whether a shop-day is editable, awaiting admin review, or
  finalized. Each (shop, date) pair carries independent state, derived
  from two flags on the cash ledger:

    OPEN            locked=false approved=false   staff edits freely
    LOCKED_PENDING  locked=true  approved=false   awaiting admin
    APPROVED        locked=true  approved=true    fully read-only

  plus an unlock_requested side flag settable while locked.

TRANSITIONS:
  staff  LockAndSubmit   OPEN -> LOCKED_PENDING   (+ forward rollover,
                                                    + pending lock request)
  admin  Approve         LOCKED_PENDING -> APPROVED (+ forward rollover)
  admin  Reject          resolves the request; day stays LOCKED_PENDING
  staff  RequestUnlock   flags unlock_requested while locked
  admin  Unlock          any locked state -> OPEN (resolves a pending
                         unlock request when one exists)

  Reject deliberately leaves the day LOCKED_PENDING: staff have no path
  back to OPEN except an admin unlock. That dead-end mirrors the system
  this replaces and is kept visible rather than silently redesigned.

INVARIANT:
  approved implies locked, after every transition. The reverse does not
  hold (LOCKED_PENDING).

FAILURE POLICY:
  Lock and approve are finalize-class: if the forward rollover reports
  even a partial failure, the transition is aborted loudly. An
  incompletely rolled-forward day must never end up locked.
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Workflow drives lock/approval transitions for shop-days.
type Workflow struct {
	Store    Store
	Rollover *Rollover
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{Store: store, Rollover: NewRollover(store)}
}

// =============================================================================
// STAFF ACTIONS
// =============================================================================

// LockAndSubmit finalizes a day from the staff side: pushes the day's
// closing balances into the next day, locks the ledger, and files a
// pending lock request for admin review. The caller must have saved all
// pending edits first (DayService.SaveDay does).
func (w *Workflow) LockAndSubmit(ctx context.Context, s Session) (*ApprovalRequest, error) {
	cash, err := w.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		return nil, fmt.Errorf("lock: load cash ledger: %w", err)
	}
	if cash.State() != StateOpen {
		return nil, &StateError{Shop: s.Shop, Date: s.Date, State: cash.State(), Action: "lock"}
	}

	// Roll the closing balances into tomorrow before anything locks.
	// A partial rollover aborts the whole action.
	if err := w.Rollover.PushForward(ctx, s.Shop, s.Date); err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}

	now := time.Now().UTC()
	cash.Locked = true
	cash.LockedAt = &now
	if err := w.Store.UpsertCashLedger(ctx, cash); err != nil {
		return nil, fmt.Errorf("lock: save cash ledger: %w", err)
	}

	req := ApprovalRequest{
		ShopID:      s.Shop,
		EntryDate:   s.Date,
		Type:        RequestLock,
		RequestedBy: s.Actor,
		Status:      RequestPending,
		CreatedAt:   now,
	}
	id, err := w.Store.CreateApprovalRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lock: create approval request: %w", err)
	}
	req.ID = id
	return &req, nil
}

// RequestUnlock files a pending unlock request for a locked day. The
// lock state itself does not change until an admin acts.
func (w *Workflow) RequestUnlock(ctx context.Context, s Session) (*ApprovalRequest, error) {
	cash, err := w.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		return nil, fmt.Errorf("request unlock: load cash ledger: %w", err)
	}
	if !cash.Locked {
		return nil, &StateError{Shop: s.Shop, Date: s.Date, State: cash.State(), Action: "request unlock"}
	}

	now := time.Now().UTC()
	cash.UnlockRequested = true
	if err := w.Store.UpsertCashLedger(ctx, cash); err != nil {
		return nil, fmt.Errorf("request unlock: save cash ledger: %w", err)
	}

	req := ApprovalRequest{
		ShopID:      s.Shop,
		EntryDate:   s.Date,
		Type:        RequestUnlock,
		RequestedBy: s.Actor,
		Status:      RequestPending,
		CreatedAt:   now,
	}
	id, err := w.Store.CreateApprovalRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request unlock: create approval request: %w", err)
	}
	req.ID = id
	return &req, nil
}

// =============================================================================
// ADMIN ACTIONS
// =============================================================================

// Approve finalizes a locked day: resolves the pending lock request
// (when one exists), marks the ledger approved, and re-runs the forward
// rollover so tomorrow's openings match the finalized closings.
func (w *Workflow) Approve(ctx context.Context, s Session) error {
	if s.Role != RoleAdmin {
		return ErrNotAuthorized
	}

	cash, err := w.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		return fmt.Errorf("approve: load cash ledger: %w", err)
	}
	switch cash.State() {
	case StateApproved:
		return &StateError{Shop: s.Shop, Date: s.Date, State: StateApproved, Action: "approve"}
	case StateOpen:
		return &StateError{Shop: s.Shop, Date: s.Date, State: StateOpen, Action: "approve"}
	}

	if err := w.Rollover.PushForward(ctx, s.Shop, s.Date); err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	now := time.Now().UTC()
	cash.Approved = true
	cash.ApprovedAt = &now
	if err := w.Store.UpsertCashLedger(ctx, cash); err != nil {
		return fmt.Errorf("approve: save cash ledger: %w", err)
	}

	if err := w.resolvePending(ctx, s, RequestLock, RequestApproved); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// Reject resolves the day's pending lock request as rejected. The
// ledger flags are untouched: the day remains LOCKED_PENDING until an
// admin unlocks it.
func (w *Workflow) Reject(ctx context.Context, s Session) error {
	if s.Role != RoleAdmin {
		return ErrNotAuthorized
	}

	cash, err := w.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		return fmt.Errorf("reject: load cash ledger: %w", err)
	}
	if cash.State() != StateLockedPending {
		return &StateError{Shop: s.Shop, Date: s.Date, State: cash.State(), Action: "reject"}
	}

	if err := w.resolvePending(ctx, s, RequestLock, RequestRejected); err != nil {
		return fmt.Errorf("reject: %w", err)
	}
	return nil
}

// Unlock returns a locked day to OPEN: clears the lock, approval, and
// unlock-request flags and resolves the day's pending requests, both
// the unlock request (approved) and any still-pending lock request
// (rejected). Admins may unlock directly, with or without a request.
func (w *Workflow) Unlock(ctx context.Context, s Session) error {
	if s.Role != RoleAdmin {
		return ErrNotAuthorized
	}

	cash, err := w.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		return fmt.Errorf("unlock: load cash ledger: %w", err)
	}
	if !cash.Locked {
		return &StateError{Shop: s.Shop, Date: s.Date, State: cash.State(), Action: "unlock"}
	}

	cash.Locked = false
	cash.Approved = false
	cash.UnlockRequested = false
	cash.ApprovedAt = nil
	if err := w.Store.UpsertCashLedger(ctx, cash); err != nil {
		return fmt.Errorf("unlock: save cash ledger: %w", err)
	}

	if err := w.resolvePending(ctx, s, RequestUnlock, RequestApproved); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	// Unlocking a LOCKED_PENDING day also retires its pending lock
	// request: the lock it asked about no longer exists, and a stale
	// entry would be the one resolved on the next approve.
	if err := w.resolvePending(ctx, s, RequestLock, RequestRejected); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}

// resolvePending resolves the day's oldest pending request of the given
// type. A missing request is not an error: admins may act directly.
func (w *Workflow) resolvePending(ctx context.Context, s Session, typ RequestType, status RequestStatus) error {
	pending, err := w.Store.PendingApprovalRequests(ctx, s.Shop)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}
	for _, req := range pending {
		if req.Type == typ && req.EntryDate.Equal(s.Date) {
			return w.Store.ResolveApprovalRequest(ctx, req.ID, status)
		}
	}
	return nil
}
