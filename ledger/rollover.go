/*
rollover.go - Day rollover / carry-forward orchestrator

PURPOSE:
  Seeds a new shop-day from the previous one: yesterday's closing stock
  becomes today's opening stock, yesterday's counter closing becomes
  today's counter opening. Runs before a day is first shown or edited,
  and again (forward, unconditionally) when a day is finalized.

IDEMPOTENCY:
  The backward pass is guarded: if any of the target day's stock lines
  already carries opening stock, the day is treated as rolled forward
  and nothing is touched. Re-invocation is therefore always safe, which
  is the sole concurrency safeguard in this design.

FIRST DAY:
  No previous-day rows is not an error. The pass reports applied=false
  and the day starts from zeros.

FAILURE SEMANTICS:
  Rows are written one product at a time so a single failure cannot
  abort the rest. Failures are collected into a PartialRolloverError;
  finalize-class callers (lock, approve) must fail loudly on it.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Rollover carries closing balances across day boundaries.
type Rollover struct {
	Store Store
}

func NewRollover(store Store) *Rollover {
	return &Rollover{Store: store}
}

// =============================================================================
// BACKWARD PASS - Seed target date from the prior day (idempotent)
// =============================================================================

// CarryForward seeds (shop, target) from (shop, target-1). It reports
// whether anything was applied. Already-rolled-forward days and missing
// prior days are both safe no-ops.
func (r *Rollover) CarryForward(ctx context.Context, shop ShopID, target DayDate) (bool, error) {
	prev := target.Prev()

	existing, err := r.Store.StockLines(ctx, shop, target)
	if err != nil {
		return false, fmt.Errorf("carry-forward: load target stock lines: %w", err)
	}

	// Guard: any opening stock on the target day means a prior pass
	// already ran.
	for _, line := range existing {
		if line.OpeningStock > 0 {
			return false, nil
		}
	}

	prevLines, err := r.Store.StockLines(ctx, shop, prev)
	if err != nil {
		return false, fmt.Errorf("carry-forward: load previous stock lines: %w", err)
	}

	mrps, err := r.productMRPs(ctx, shop)
	if err != nil {
		return false, err
	}

	byProduct := make(map[ProductID]*StockLine, len(existing))
	for i := range existing {
		byProduct[existing[i].ProductID] = &existing[i]
	}

	applied := false
	var failures []RowFailure

	for _, prevLine := range prevLines {
		if prevLine.ClosingStock == 0 {
			continue
		}

		line, ok := byProduct[prevLine.ProductID]
		if ok {
			if line.OpeningStock != 0 {
				continue
			}
			line.OpeningStock = prevLine.ClosingStock
			// Closing starts equal to opening so sold qty begins at 0.
			line.ClosingStock = prevLine.ClosingStock
		} else {
			line = &StockLine{
				ShopID:       shop,
				ProductID:    prevLine.ProductID,
				EntryDate:    target,
				OpeningStock: prevLine.ClosingStock,
				ClosingStock: prevLine.ClosingStock,
			}
		}
		RecomputeStockLine(line, mrps[line.ProductID])

		// One row per write so an individual failure cannot abort the
		// remaining products.
		if err := r.Store.UpsertStockLines(ctx, []StockLine{*line}); err != nil {
			failures = append(failures, RowFailure{ProductID: line.ProductID, Err: err})
			continue
		}
		applied = true
	}

	cashApplied, err := r.carryForwardCash(ctx, shop, prev, target)
	if err != nil {
		failures = append(failures, RowFailure{Err: err})
	}
	applied = applied || cashApplied

	if len(failures) > 0 {
		return applied, &PartialRolloverError{Shop: shop, Target: target, Failures: failures}
	}
	return applied, nil
}

func (r *Rollover) carryForwardCash(ctx context.Context, shop ShopID, prev, target DayDate) (bool, error) {
	prevCash, err := r.Store.CashLedger(ctx, shop, prev)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("carry-forward: load previous cash ledger: %w", err)
	}
	if prevCash.CounterClosing.Sign() <= 0 {
		return false, nil
	}

	cash, err := r.Store.CashLedger(ctx, shop, target)
	if err != nil {
		if !IsNotFound(err) {
			return false, fmt.Errorf("carry-forward: load target cash ledger: %w", err)
		}
		cash = NewCashLedger(shop, target)
	} else if cash.CounterOpening.Sign() != 0 {
		// Already seeded.
		return false, nil
	}

	cash.CounterOpening = prevCash.CounterClosing
	if err := r.Store.UpsertCashLedger(ctx, cash); err != nil {
		return false, fmt.Errorf("carry-forward: seed counter opening: %w", err)
	}
	return true, nil
}

// =============================================================================
// FORWARD PASS - Push a finalized day's closings into the next day
// =============================================================================

// PushForward mirrors the backward pass from day into day+1, but runs
// unconditionally: it is the explicit finalize-time push, authoritative
// over whatever the next day's rows currently hold. Rows the next day's
// staff already edited keep their movement fields; only opening stock
// is re-seeded (and closing, when the row is still untouched).
func (r *Rollover) PushForward(ctx context.Context, shop ShopID, day DayDate) error {
	target := day.Next()

	lines, err := r.Store.StockLines(ctx, shop, day)
	if err != nil {
		return fmt.Errorf("push-forward: load stock lines: %w", err)
	}

	targetLines, err := r.Store.StockLines(ctx, shop, target)
	if err != nil {
		return fmt.Errorf("push-forward: load next-day stock lines: %w", err)
	}
	byProduct := make(map[ProductID]*StockLine, len(targetLines))
	for i := range targetLines {
		byProduct[targetLines[i].ProductID] = &targetLines[i]
	}

	mrps, err := r.productMRPs(ctx, shop)
	if err != nil {
		return err
	}

	var failures []RowFailure
	for _, src := range lines {
		line, ok := byProduct[src.ProductID]
		if ok {
			line.OpeningStock = src.ClosingStock
			if line.Purchases == 0 && line.Transfer == 0 && line.ClosingStock == 0 {
				line.ClosingStock = src.ClosingStock
			}
		} else {
			line = &StockLine{
				ShopID:       shop,
				ProductID:    src.ProductID,
				EntryDate:    target,
				OpeningStock: src.ClosingStock,
				ClosingStock: src.ClosingStock,
			}
		}
		RecomputeStockLine(line, mrps[line.ProductID])

		if err := r.Store.UpsertStockLines(ctx, []StockLine{*line}); err != nil {
			failures = append(failures, RowFailure{ProductID: src.ProductID, Err: err})
		}
	}

	if err := r.pushForwardCash(ctx, shop, day, target); err != nil {
		failures = append(failures, RowFailure{Err: err})
	}

	if len(failures) > 0 {
		return &PartialRolloverError{Shop: shop, Target: target, Failures: failures}
	}
	return nil
}

func (r *Rollover) pushForwardCash(ctx context.Context, shop ShopID, day, target DayDate) error {
	dayCash, err := r.Store.CashLedger(ctx, shop, day)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("push-forward: load cash ledger: %w", err)
	}

	cash, err := r.Store.CashLedger(ctx, shop, target)
	if err != nil {
		if !IsNotFound(err) {
			return fmt.Errorf("push-forward: load next-day cash ledger: %w", err)
		}
		cash = NewCashLedger(shop, target)
	}

	cash.CounterOpening = dayCash.CounterClosing
	if err := r.Store.UpsertCashLedger(ctx, cash); err != nil {
		return fmt.Errorf("push-forward: seed counter opening: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Rollover) productMRPs(ctx context.Context, shop ShopID) (map[ProductID]decimal.Decimal, error) {
	products, err := r.Store.Products(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("carry-forward: load products: %w", err)
	}
	mrps := make(map[ProductID]decimal.Decimal, len(products))
	for _, p := range products {
		mrps[p.ID] = p.MRP
	}
	return mrps, nil
}

// NewCashLedger returns a fresh register row with zeroed movement and a
// full standard note set.
func NewCashLedger(shop ShopID, date DayDate) *CashLedger {
	return &CashLedger{
		ShopID:     shop,
		EntryDate:  date,
		Notes:      StandardNotes(),
		CashStatus: StatusBalanced,
	}
}

// IsNotFound reports whether err is the store's missing-record signal.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
