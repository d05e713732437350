/*
reconcile_test.go - Executable documentation of the cash model

Each test walks one worked example through the canonical formulas:

  total_amount    = counter_opening + total_sale_value + extra_income
  counter_closing = total_amount - digital - cash_to_house - expenses
  after_deduct    = physical_cash - bank_deposit - cash_to_house
  status_value    = after_deduct + credit
  difference      = status_value - counter_closing
*/
package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/daybook/ledger"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func saleLine(soldQty int, unitPrice int64) ledger.StockLine {
	line := ledger.StockLine{OpeningStock: soldQty, ClosingStock: 0}
	ledger.RecomputeStockLine(&line, dec(unitPrice))
	return line
}

func TestReconcile_CounterClosing_WorkedExample(t *testing.T) {
	// GIVEN: opening 1000, sales 5000, extra income 200,
	//        digital 2000, cash to house 500, expenses 100
	// THEN:  total_amount    = 1000 + 5000 + 200        = 6200
	//        counter_closing = 6200 - 2000 - 500 - 100  = 3600

	cash := &ledger.CashLedger{
		CounterOpening: dec(1000),
		Digital:        []ledger.DigitalPayment{{Channel: "Google Pay", Amount: dec(2000)}},
		CashToHouse:    dec(500),
	}
	lines := []ledger.StockLine{saleLine(50, 100)} // 5000
	extras := []ledger.ExtraTransaction{
		{Type: ledger.TxIncome, Amount: dec(200)},
		{Type: ledger.TxExpense, Amount: dec(100)},
	}

	r := ledger.Reconcile(cash, lines, extras, nil)

	if !r.TotalAmount.Equal(dec(6200)) {
		t.Errorf("total amount: want 6200, got %s", r.TotalAmount)
	}
	if !r.CounterClosing.Equal(dec(3600)) {
		t.Errorf("counter closing: want 3600, got %s", r.CounterClosing)
	}
}

func TestReconcile_Shortage_WorkedExample(t *testing.T) {
	// GIVEN: expected counter closing 3600
	//        (opening 1000 + sales 5000 - digital 2100 - to-house 200 - expenses 100)
	//        counted cash 3000, bank deposit 500, cash to house 200, credit 300
	// THEN:  after_deductions = 3000 - 500 - 200 = 2300
	//        status_value     = 2300 + 300       = 2600
	//        difference       = 2600 - 3600      = -1000 -> SHORTAGE of 1000

	cash := &ledger.CashLedger{
		CounterOpening: dec(1000),
		Notes:          []ledger.NoteCount{{Face: 500, Count: 6}}, // 3000
		Digital:        []ledger.DigitalPayment{{Channel: "PhonePe/Paytm", Amount: dec(2100)}},
		BankDeposit:    dec(500),
		CashToHouse:    dec(200),
	}
	lines := []ledger.StockLine{saleLine(50, 100)} // 5000
	extras := []ledger.ExtraTransaction{{Type: ledger.TxExpense, Amount: dec(100)}}
	credits := []ledger.CreditEntry{{PersonName: "Ravi", Amount: dec(300)}}

	r := ledger.Reconcile(cash, lines, extras, credits)

	if !r.CounterClosing.Equal(dec(3600)) {
		t.Fatalf("counter closing: want 3600, got %s", r.CounterClosing)
	}
	if !r.CashAfterDeductions.Equal(dec(2300)) {
		t.Errorf("after deductions: want 2300, got %s", r.CashAfterDeductions)
	}
	if !r.CashStatusValue.Equal(dec(2600)) {
		t.Errorf("status value: want 2600, got %s", r.CashStatusValue)
	}
	if !r.CashDifference.Equal(dec(-1000)) {
		t.Errorf("difference: want -1000, got %s", r.CashDifference)
	}
	if r.Status != ledger.StatusShortage {
		t.Errorf("status: want shortage, got %s", r.Status)
	}
	if !r.StatusAmount.Equal(dec(1000)) {
		t.Errorf("status amount: want 1000, got %s", r.StatusAmount)
	}
}

func TestReconcile_Balanced_ZeroDifference(t *testing.T) {
	// GIVEN: counted cash exactly matching the expectation
	// THEN:  BALANCED with zero status amount

	cash := &ledger.CashLedger{
		CounterOpening: dec(500),
		Notes:          []ledger.NoteCount{{Face: 500, Count: 3}}, // 1500
	}
	lines := []ledger.StockLine{saleLine(10, 100)} // 1000

	r := ledger.Reconcile(cash, lines, nil, nil)

	// closing = 500 + 1000 = 1500; counted 1500
	if r.Status != ledger.StatusBalanced {
		t.Errorf("status: want balanced, got %s (difference %s)", r.Status, r.CashDifference)
	}
	if !r.StatusAmount.IsZero() {
		t.Errorf("status amount: want 0, got %s", r.StatusAmount)
	}
}

func TestReconcile_Excess_PositiveDifference(t *testing.T) {
	cash := &ledger.CashLedger{
		Notes: []ledger.NoteCount{{Face: 100, Count: 12}}, // 1200
	}
	lines := []ledger.StockLine{saleLine(10, 100)} // closing expectation 1000

	r := ledger.Reconcile(cash, lines, nil, nil)

	if r.Status != ledger.StatusExcess {
		t.Fatalf("status: want excess, got %s", r.Status)
	}
	if !r.StatusAmount.Equal(dec(200)) {
		t.Errorf("status amount: want 200, got %s", r.StatusAmount)
	}
}

func TestReconcile_PhysicalCash_NotesPlusCoins(t *testing.T) {
	// GIVEN: a denomination count across faces plus a coins amount
	// THEN:  physical cash is the exact sum

	cash := &ledger.CashLedger{
		Notes: []ledger.NoteCount{
			{Face: 500, Count: 4}, // 2000
			{Face: 200, Count: 3}, // 600
			{Face: 50, Count: 7},  // 350
			{Face: 2, Count: 5},   // 10
		},
		Coins: decimal.RequireFromString("37.50"),
	}

	r := ledger.Reconcile(cash, nil, nil, nil)

	want := decimal.RequireFromString("2997.50")
	if !r.PhysicalCash.Equal(want) {
		t.Errorf("physical cash: want %s, got %s", want, r.PhysicalCash)
	}
}

func TestReconcile_CreditFeedsStatusSideOnly(t *testing.T) {
	// GIVEN: identical days, one with a credit sale recorded
	// THEN:  counter closing is unchanged; only the status side moves

	base := &ledger.CashLedger{CounterOpening: dec(1000)}
	lines := []ledger.StockLine{saleLine(20, 100)}

	without := ledger.Reconcile(base, lines, nil, nil)
	with := ledger.Reconcile(base, lines, nil, []ledger.CreditEntry{{PersonName: "Anand", Amount: dec(400)}})

	if !with.CounterClosing.Equal(without.CounterClosing) {
		t.Errorf("counter closing moved with credit: %s vs %s", with.CounterClosing, without.CounterClosing)
	}
	if !with.CashStatusValue.Sub(without.CashStatusValue).Equal(dec(400)) {
		t.Errorf("status value should move by the credit amount")
	}
}

func TestReconcile_TotalBottlesSold_SumsAcrossLines(t *testing.T) {
	lines := []ledger.StockLine{saleLine(12, 100), saleLine(8, 250), saleLine(-2, 90)}

	r := ledger.Reconcile(&ledger.CashLedger{}, lines, nil, nil)

	if r.TotalBottlesSold != 18 {
		t.Errorf("total bottles: want 18, got %d", r.TotalBottlesSold)
	}
}

func TestReconcile_Snapshot_CopiesDerivedTotals(t *testing.T) {
	// The persisted row carries the reconciled picture but is never an
	// input on the next pass.
	cash := &ledger.CashLedger{
		CounterOpening: dec(100),
		Notes:          []ledger.NoteCount{{Face: 100, Count: 2}},
	}
	lines := []ledger.StockLine{saleLine(1, 100)}

	r := ledger.Reconcile(cash, lines, nil, nil)
	r.ApplySnapshot(cash)

	if !cash.CounterClosing.Equal(r.CounterClosing) {
		t.Errorf("snapshot counter closing mismatch")
	}
	if !cash.PhysicalCash.Equal(dec(200)) {
		t.Errorf("snapshot physical cash: want 200, got %s", cash.PhysicalCash)
	}
	if cash.CashStatus != r.Status {
		t.Errorf("snapshot status mismatch: %s vs %s", cash.CashStatus, r.Status)
	}

	// Tampering with the stored totals has no effect on a recompute.
	cash.CounterClosing = dec(999999)
	again := ledger.Reconcile(cash, lines, nil, nil)
	if !again.CounterClosing.Equal(r.CounterClosing) {
		t.Errorf("stored totals leaked into recompute")
	}
}
