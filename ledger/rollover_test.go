/*
rollover_test.go - Carry-forward behavior

Covers the idempotency guard, the day-boundary chain (closing stock
becomes opening stock, counter closing becomes counter opening), and
the partial-failure reporting contract.
*/
package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/daybook/ledger"
	"github.com/warp/daybook/ledger/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

const testShop = ledger.ShopID("shop-1")

func day(dd int) ledger.DayDate {
	return ledger.NewDayDate(2026, time.August, dd)
}

func seedProduct(t *testing.T, m *store.Memory, id string, unitPrice int64) ledger.ProductID {
	t.Helper()
	pid := ledger.ProductID(id)
	err := m.SaveProduct(context.Background(), ledger.Product{
		ID:        pid,
		ShopID:    testShop,
		BrandName: id,
		SizeML:    750,
		MRP:       decimal.NewFromInt(unitPrice),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return pid
}

func seedStockLine(t *testing.T, m *store.Memory, pid ledger.ProductID, d ledger.DayDate, opening, purchases, transfer, closing int, unitPrice int64) {
	t.Helper()
	line := ledger.StockLine{
		ShopID:       testShop,
		ProductID:    pid,
		EntryDate:    d,
		OpeningStock: opening,
		Purchases:    purchases,
		Transfer:     transfer,
		ClosingStock: closing,
	}
	ledger.RecomputeStockLine(&line, decimal.NewFromInt(unitPrice))
	if err := m.UpsertStockLines(context.Background(), []ledger.StockLine{line}); err != nil {
		t.Fatalf("seed stock line: %v", err)
	}
}

// flakyStore fails stock upserts for one product, everything else
// passes through.
type flakyStore struct {
	ledger.Store
	failProduct ledger.ProductID
}

var errDiskFull = errors.New("disk full")

func (f *flakyStore) UpsertStockLines(ctx context.Context, lines []ledger.StockLine) error {
	for _, l := range lines {
		if l.ProductID == f.failProduct {
			return errDiskFull
		}
	}
	return f.Store.UpsertStockLines(ctx, lines)
}

// =============================================================================
// BACKWARD PASS
// =============================================================================

func TestCarryForward_ClosingBecomesOpening(t *testing.T) {
	// GIVEN: day D ends with closing stock 40
	// WHEN: day D+1 is carried forward
	// THEN: D+1 opens at 40, closes at 40, and has sold 0

	ctx := context.Background()
	m := store.NewMemory()
	pid := seedProduct(t, m, "whisky-750", 450)
	seedStockLine(t, m, pid, day(10), 50, 0, 0, 40, 450)

	applied, err := ledger.NewRollover(m).CarryForward(ctx, testShop, day(11))
	if err != nil {
		t.Fatalf("carry-forward: %v", err)
	}
	if !applied {
		t.Fatal("expected carry-forward to apply")
	}

	line, err := m.StockLine(ctx, testShop, day(11), pid)
	if err != nil {
		t.Fatalf("load line: %v", err)
	}
	if line.OpeningStock != 40 || line.ClosingStock != 40 || line.SoldQty != 0 {
		t.Errorf("want opening=40 closing=40 sold=0, got opening=%d closing=%d sold=%d",
			line.OpeningStock, line.ClosingStock, line.SoldQty)
	}
}

func TestCarryForward_Idempotent(t *testing.T) {
	// GIVEN: a day already carried forward (and then edited by staff)
	// WHEN: carry-forward runs again
	// THEN: nothing changes; the second pass reports applied=false

	ctx := context.Background()
	m := store.NewMemory()
	pid := seedProduct(t, m, "rum-500", 300)
	seedStockLine(t, m, pid, day(10), 0, 30, 0, 25, 300)

	roll := ledger.NewRollover(m)
	if _, err := roll.CarryForward(ctx, testShop, day(11)); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// Staff sell 10 bottles.
	seedStockLine(t, m, pid, day(11), 25, 0, 0, 15, 300)

	applied, err := roll.CarryForward(ctx, testShop, day(11))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if applied {
		t.Error("second pass must be a no-op")
	}

	line, _ := m.StockLine(ctx, testShop, day(11), pid)
	if line.ClosingStock != 15 {
		t.Errorf("staff edit overwritten: closing = %d, want 15", line.ClosingStock)
	}
}

func TestCarryForward_FirstDay_NoPriorData(t *testing.T) {
	// A brand-new shop has no previous day. That is not an error.
	ctx := context.Background()
	m := store.NewMemory()
	seedProduct(t, m, "beer-650", 160)

	applied, err := ledger.NewRollover(m).CarryForward(ctx, testShop, day(1))
	if err != nil {
		t.Fatalf("carry-forward on first day: %v", err)
	}
	if applied {
		t.Error("nothing to carry; applied should be false")
	}
}

func TestCarryForward_SkipsZeroClosing(t *testing.T) {
	// Sold-out products do not produce a target-day row.
	ctx := context.Background()
	m := store.NewMemory()
	pid := seedProduct(t, m, "gin-750", 500)
	seedStockLine(t, m, pid, day(10), 10, 0, 0, 0, 500)

	if _, err := ledger.NewRollover(m).CarryForward(ctx, testShop, day(11)); err != nil {
		t.Fatalf("carry-forward: %v", err)
	}
	if _, err := m.StockLine(ctx, testShop, day(11), pid); !ledger.IsNotFound(err) {
		t.Errorf("sold-out product should not be carried, got err=%v", err)
	}
}

func TestCarryForward_CounterClosingSeedsOpening(t *testing.T) {
	// GIVEN: day D's ledger reconciled to counter closing 3600
	// WHEN: D+1 is carried forward
	// THEN: D+1's counter opening is 3600

	ctx := context.Background()
	m := store.NewMemory()
	cash := ledger.NewCashLedger(testShop, day(10))
	cash.CounterClosing = decimal.NewFromInt(3600)
	if err := m.UpsertCashLedger(ctx, cash); err != nil {
		t.Fatalf("seed cash: %v", err)
	}

	if _, err := ledger.NewRollover(m).CarryForward(ctx, testShop, day(11)); err != nil {
		t.Fatalf("carry-forward: %v", err)
	}

	next, err := m.CashLedger(ctx, testShop, day(11))
	if err != nil {
		t.Fatalf("load next cash: %v", err)
	}
	if !next.CounterOpening.Equal(decimal.NewFromInt(3600)) {
		t.Errorf("counter opening: want 3600, got %s", next.CounterOpening)
	}
}

func TestCarryForward_PartialFailure_ReportsPerRow(t *testing.T) {
	// GIVEN: three products, one of which fails to write
	// WHEN: carry-forward runs
	// THEN: the other two rows land, and the error names the failed
	//       product while unwrapping to ErrRolloverIncomplete

	ctx := context.Background()
	m := store.NewMemory()
	good1 := seedProduct(t, m, "brandy-750", 400)
	bad := seedProduct(t, m, "vodka-750", 350)
	good2 := seedProduct(t, m, "wine-750", 600)
	seedStockLine(t, m, good1, day(10), 0, 20, 0, 12, 400)
	seedStockLine(t, m, bad, day(10), 0, 20, 0, 8, 350)
	seedStockLine(t, m, good2, day(10), 0, 20, 0, 16, 600)

	roll := ledger.NewRollover(&flakyStore{Store: m, failProduct: bad})
	applied, err := roll.CarryForward(ctx, testShop, day(11))

	if !applied {
		t.Error("surviving rows should still apply")
	}
	if !errors.Is(err, ledger.ErrRolloverIncomplete) {
		t.Fatalf("want ErrRolloverIncomplete, got %v", err)
	}
	var partial *ledger.PartialRolloverError
	if !errors.As(err, &partial) {
		t.Fatalf("want *PartialRolloverError, got %T", err)
	}
	if len(partial.Failures) != 1 || partial.Failures[0].ProductID != bad {
		t.Errorf("failures should name exactly the failed product: %+v", partial.Failures)
	}

	if _, err := m.StockLine(ctx, testShop, day(11), good1); err != nil {
		t.Errorf("surviving product missing: %v", err)
	}
	if _, err := m.StockLine(ctx, testShop, day(11), good2); err != nil {
		t.Errorf("surviving product missing: %v", err)
	}
}

// =============================================================================
// FORWARD PASS
// =============================================================================

func TestPushForward_Unconditional_OverwritesOpening(t *testing.T) {
	// GIVEN: day D+1 already rolled forward, then day D's closing is
	//        corrected before finalize
	// WHEN: the finalize-time push runs
	// THEN: D+1's opening follows the corrected closing

	ctx := context.Background()
	m := store.NewMemory()
	pid := seedProduct(t, m, "whisky-1000", 700)
	seedStockLine(t, m, pid, day(10), 0, 30, 0, 20, 700)

	roll := ledger.NewRollover(m)
	if _, err := roll.CarryForward(ctx, testShop, day(11)); err != nil {
		t.Fatalf("initial carry: %v", err)
	}

	// Admin corrects day 10's closing from 20 to 18.
	seedStockLine(t, m, pid, day(10), 0, 30, 0, 18, 700)

	if err := roll.PushForward(ctx, testShop, day(10)); err != nil {
		t.Fatalf("push-forward: %v", err)
	}

	line, _ := m.StockLine(ctx, testShop, day(11), pid)
	if line.OpeningStock != 18 {
		t.Errorf("opening: want 18, got %d", line.OpeningStock)
	}
}

func TestPushForward_PreservesNextDayEdits(t *testing.T) {
	// GIVEN: staff already entered movement on D+1
	// WHEN: day D is finalized
	// THEN: only D+1's opening is re-seeded; the entered movement stays

	ctx := context.Background()
	m := store.NewMemory()
	pid := seedProduct(t, m, "rum-750", 350)
	seedStockLine(t, m, pid, day(10), 0, 0, 0, 20, 350)
	seedStockLine(t, m, pid, day(11), 20, 10, 2, 15, 350)

	if err := ledger.NewRollover(m).PushForward(ctx, testShop, day(10)); err != nil {
		t.Fatalf("push-forward: %v", err)
	}

	line, _ := m.StockLine(ctx, testShop, day(11), pid)
	if line.Purchases != 10 || line.Transfer != 2 || line.ClosingStock != 15 {
		t.Errorf("next-day edits lost: %+v", line)
	}
	if line.OpeningStock != 20 {
		t.Errorf("opening: want 20, got %d", line.OpeningStock)
	}
	// sold = 20 + 10 - 2 - 15
	if line.SoldQty != 13 {
		t.Errorf("sold: want 13, got %d", line.SoldQty)
	}
}

func TestPushForward_CashOpeningFollowsClosing(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	cash := ledger.NewCashLedger(testShop, day(10))
	cash.CounterClosing = decimal.NewFromInt(2750)
	if err := m.UpsertCashLedger(ctx, cash); err != nil {
		t.Fatalf("seed cash: %v", err)
	}

	// D+1 already seeded from an earlier (stale) closing.
	stale := ledger.NewCashLedger(testShop, day(11))
	stale.CounterOpening = decimal.NewFromInt(9999)
	if err := m.UpsertCashLedger(ctx, stale); err != nil {
		t.Fatalf("seed stale cash: %v", err)
	}

	if err := ledger.NewRollover(m).PushForward(ctx, testShop, day(10)); err != nil {
		t.Fatalf("push-forward: %v", err)
	}

	next, _ := m.CashLedger(ctx, testShop, day(11))
	if !next.CounterOpening.Equal(decimal.NewFromInt(2750)) {
		t.Errorf("counter opening: want 2750, got %s", next.CounterOpening)
	}
}
