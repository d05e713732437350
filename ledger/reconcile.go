/*
reconcile.go - Cash reconciliation engine

PURPOSE:
  Derives the full cash picture for one shop-day from raw inputs:
  counted denominations, digital channel totals, deductions, extra
  income/expenses, credit sales, and the day's stock lines. Pure and
  total - it never fails, and negative results are data.

MODEL:
  physical_cash   = sum(note count * face) + coins
  total_digital   = sum(digital channel amounts)
  total_amount    = counter_opening + total_sale_value + extra_income
  counter_closing = total_amount - total_digital - cash_to_house - expenses

  counter_closing is an EXPECTATION: the cash that should remain at the
  counter after digital receipts and owner withdrawals are removed. It
  is compared against what was actually counted:

  after_deductions = physical_cash - bank_deposit - cash_to_house
  status_value     = after_deductions + total_credit
  difference       = status_value - counter_closing

  difference == 0  -> BALANCED
  difference  > 0  -> EXCESS of difference
  difference  < 0  -> SHORTAGE of |difference|

  Credit offsets an apparent shortage (the goods left, the cash did
  not) but is never cash received, so it feeds the status side only.

CANONICAL FORMULA:
  The system this replaces shipped three generations of this math; an
  early revision had no credit, bank-deposit, or cash-to-house terms.
  This file is the single canonical model. See DESIGN.md.

RECOMPUTATION:
  Reconcile runs as one deterministic pass over full current state on
  every edit and before every save. Stored totals are snapshots of its
  output, never inputs to it.
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// CASH STATUS
// =============================================================================

type CashStatus string

const (
	StatusBalanced CashStatus = "balanced"
	StatusExcess   CashStatus = "excess"
	StatusShortage CashStatus = "shortage"
)

// =============================================================================
// RECONCILIATION RESULT
// =============================================================================

// ReconciliationResult is the complete derived cash picture for a day.
type ReconciliationResult struct {
	TotalSaleValue   decimal.Decimal
	TotalBottlesSold int

	PhysicalCash decimal.Decimal
	TotalDigital decimal.Decimal

	TotalExtraIncome decimal.Decimal
	TotalExpenses    decimal.Decimal
	TotalCredit      decimal.Decimal

	// TotalAmount is everything the counter should account for:
	// opening float plus the day's sales plus extra income.
	TotalAmount decimal.Decimal

	// CounterClosing is the expected cash left at the counter.
	CounterClosing decimal.Decimal

	// CashAfterDeductions is counted cash minus bank deposit and
	// owner withdrawal.
	CashAfterDeductions decimal.Decimal

	// CashStatusValue is counted-cash-after-deductions plus credit;
	// the side of the comparison backed by physical evidence.
	CashStatusValue decimal.Decimal

	// CashDifference = CashStatusValue - CounterClosing (signed).
	CashDifference decimal.Decimal

	Status CashStatus

	// StatusAmount is the absolute excess or shortage (zero when balanced).
	StatusAmount decimal.Decimal
}

// =============================================================================
// ENGINE
// =============================================================================

// Reconcile derives the full cash picture from current in-memory state.
// Pure: no I/O, no mutation, no error paths.
func Reconcile(cash *CashLedger, lines []StockLine, extras []ExtraTransaction, credits []CreditEntry) ReconciliationResult {
	var r ReconciliationResult

	for _, l := range lines {
		r.TotalSaleValue = r.TotalSaleValue.Add(l.SaleValue)
		r.TotalBottlesSold += l.SoldQty
	}

	r.PhysicalCash = cash.Coins
	for _, n := range cash.Notes {
		r.PhysicalCash = r.PhysicalCash.Add(decimal.NewFromInt(n.Face * int64(n.Count)))
	}

	for _, d := range cash.Digital {
		r.TotalDigital = r.TotalDigital.Add(d.Amount)
	}

	for _, t := range extras {
		switch t.Type {
		case TxIncome:
			r.TotalExtraIncome = r.TotalExtraIncome.Add(t.Amount)
		case TxExpense:
			r.TotalExpenses = r.TotalExpenses.Add(t.Amount)
		}
	}

	for _, c := range credits {
		r.TotalCredit = r.TotalCredit.Add(c.Amount)
	}

	r.TotalAmount = cash.CounterOpening.Add(r.TotalSaleValue).Add(r.TotalExtraIncome)
	r.CounterClosing = r.TotalAmount.Sub(r.TotalDigital).Sub(cash.CashToHouse).Sub(r.TotalExpenses)

	r.CashAfterDeductions = r.PhysicalCash.Sub(cash.BankDeposit).Sub(cash.CashToHouse)
	r.CashStatusValue = r.CashAfterDeductions.Add(r.TotalCredit)
	r.CashDifference = r.CashStatusValue.Sub(r.CounterClosing)

	switch r.CashDifference.Sign() {
	case 0:
		r.Status = StatusBalanced
		r.StatusAmount = decimal.Zero
	case 1:
		r.Status = StatusExcess
		r.StatusAmount = r.CashDifference
	default:
		r.Status = StatusShortage
		r.StatusAmount = r.CashDifference.Neg()
	}

	return r
}

// ApplySnapshot copies the derived totals onto the ledger row so the
// persisted record carries the last reconciled picture.
func (r ReconciliationResult) ApplySnapshot(cash *CashLedger) {
	cash.TotalSaleValue = r.TotalSaleValue
	cash.PhysicalCash = r.PhysicalCash
	cash.TotalDigital = r.TotalDigital
	cash.TotalBottlesSold = r.TotalBottlesSold
	cash.CounterClosing = r.CounterClosing
	cash.CashDifference = r.CashDifference
	cash.CashStatus = r.Status
}
