package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/daybook/ledger"
	"github.com/warp/daybook/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const shop = ledger.ShopID("shop-1")

func aug(d int) ledger.DayDate {
	return ledger.NewDayDate(2026, time.August, d)
}

func newMemoryWithProduct(t *testing.T) (*store.Memory, ledger.ProductID) {
	t.Helper()
	m := store.NewMemory()
	pid := ledger.ProductID("whisky-750")
	require.NoError(t, m.SaveProduct(context.Background(), ledger.Product{
		ID: pid, ShopID: shop, BrandName: "Royal Oak",
		SizeML: 750, MRP: decimal.NewFromInt(450), IsActive: true,
	}))
	return m, pid
}

// =============================================================================
// UPSERT KEY & COPY-ON-READ SEMANTICS
// =============================================================================

func TestMemory_StockLineUpsert_PreservesIdentity(t *testing.T) {
	// GIVEN: A stock line written twice for the same (shop, product, date)
	// THEN: One row exists; id and created_at survive the update

	ctx := context.Background()
	m, pid := newMemoryWithProduct(t)

	line := ledger.StockLine{ShopID: shop, ProductID: pid, EntryDate: aug(10), ClosingStock: 12}
	require.NoError(t, m.UpsertStockLines(ctx, []ledger.StockLine{line}))

	first, err := m.StockLine(ctx, shop, aug(10), pid)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	update := *first
	update.ClosingStock = 8
	require.NoError(t, m.UpsertStockLines(ctx, []ledger.StockLine{update}))

	lines, err := m.StockLines(ctx, shop, aug(10))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, first.ID, lines[0].ID)
	assert.Equal(t, first.CreatedAt, lines[0].CreatedAt)
	assert.Equal(t, 8, lines[0].ClosingStock)
}

func TestMemory_CashLedgerReads_ReturnCopies(t *testing.T) {
	// Mutating a returned row (including its note slice) must not leak
	// back into the store.

	ctx := context.Background()
	m := store.NewMemory()

	cash := ledger.NewCashLedger(shop, aug(10))
	require.NoError(t, m.UpsertCashLedger(ctx, cash))

	got, err := m.CashLedger(ctx, shop, aug(10))
	require.NoError(t, err)
	got.Notes[0].Count = 99
	got.Locked = true

	reread, err := m.CashLedger(ctx, shop, aug(10))
	require.NoError(t, err)
	assert.Equal(t, 0, reread.Notes[0].Count, "note slice must be deep-copied")
	assert.False(t, reread.Locked)
}

func TestMemory_MissingRecords_Sentinel(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.CashLedger(ctx, shop, aug(10))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = m.StockLine(ctx, shop, aug(10), "nope")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// APPROVAL QUEUE
// =============================================================================

func TestMemory_PendingRequests_OldestFirst(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	base := time.Date(2026, time.August, 10, 20, 0, 0, 0, time.UTC)
	for i, d := range []int{12, 10, 11} {
		_, err := m.CreateApprovalRequest(ctx, ledger.ApprovalRequest{
			ShopID: shop, EntryDate: aug(d), Type: ledger.RequestLock,
			RequestedBy: "asha", Status: ledger.RequestPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	pending, err := m.PendingApprovalRequests(ctx, shop)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, aug(12).String(), pending[0].EntryDate.String(), "creation order, not date order")
}

func TestMemory_ResolveRequest_OnceOnly(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	id, err := m.CreateApprovalRequest(ctx, ledger.ApprovalRequest{
		ShopID: shop, EntryDate: aug(10), Type: ledger.RequestLock,
		RequestedBy: "asha", Status: ledger.RequestPending, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, m.ResolveApprovalRequest(ctx, id, ledger.RequestApproved))
	assert.ErrorIs(t, m.ResolveApprovalRequest(ctx, id, ledger.RequestRejected), ledger.ErrRequestNotPending)
	assert.ErrorIs(t, m.ResolveApprovalRequest(ctx, "nope", ledger.RequestApproved), ledger.ErrNotFound)
}

// =============================================================================
// OPTIONAL CREDIT SUBSYSTEM
// =============================================================================

func TestMemory_CreditsToggle(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.CreditsConfigured = false

	_, err := m.CreditEntries(ctx, shop, aug(10))
	assert.ErrorIs(t, err, ledger.ErrCreditLedgerNotConfigured)
	assert.ErrorIs(t, m.UpsertDebtor(ctx, shop, "Ravi"), ledger.ErrCreditLedgerNotConfigured)

	m.CreditsConfigured = true
	require.NoError(t, m.UpsertCreditEntries(ctx, shop, aug(10), []ledger.CreditEntry{
		{ShopID: shop, EntryDate: aug(10), PersonName: "Ravi", Amount: decimal.NewFromInt(300)},
	}))
	entries, err := m.CreditEntries(ctx, shop, aug(10))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
