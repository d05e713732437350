/*
store.go - Record store contract consumed by the engine

PURPOSE:
  The narrow persistence interface between the reconciliation core and
  wherever records actually live. The engine performs filtered reads
  and upserts; it never sees SQL, transports, or schemas.

IMPLEMENTATIONS:
  - store/sqlite:      Production SQLite store
  - ledger/store:      In-memory store for tests and development

CONTRACT NOTES:
  - Single-record reads return ErrNotFound when nothing matches.
  - UpsertStockLines is a batch: one round trip for a whole day's rows.
  - Credit/debtor methods may return ErrCreditLedgerNotConfigured when
    the subsystem is absent; callers degrade to empty credit data.
    This replaces sniffing "table not found" out of error text.
  - No locking primitive beyond check-before-insert exists. Concurrent
    editors of the same shop-day are last-write-wins (see DESIGN.md).
*/
package ledger

import "context"

// Store is the record store the reconciliation core runs against.
type Store interface {
	// --- Product catalog ---

	// Products returns the shop's full catalog, inactive products
	// included; callers that only want active ones filter themselves.
	Products(ctx context.Context, shop ShopID) ([]Product, error)

	// --- Stock lines ---

	// StockLines returns all stock lines for a shop-day.
	StockLines(ctx context.Context, shop ShopID, date DayDate) ([]StockLine, error)

	// StockLine returns a single product's line, or ErrNotFound.
	StockLine(ctx context.Context, shop ShopID, date DayDate, product ProductID) (*StockLine, error)

	// UpsertStockLines inserts or updates lines in one batch, matching
	// on (shop, date, product).
	UpsertStockLines(ctx context.Context, lines []StockLine) error

	// --- Cash ledger ---

	// CashLedger returns the shop-day's register row, or ErrNotFound.
	CashLedger(ctx context.Context, shop ShopID, date DayDate) (*CashLedger, error)

	// UpsertCashLedger inserts or updates the row, matching on (shop, date).
	UpsertCashLedger(ctx context.Context, cash *CashLedger) error

	// --- Extra transactions ---

	ExtraTransactions(ctx context.Context, cashLedgerID string) ([]ExtraTransaction, error)

	// ReplaceExtraTransactions swaps the full set for a cash ledger.
	ReplaceExtraTransactions(ctx context.Context, cashLedgerID string, txs []ExtraTransaction) error

	// --- Credit entries & debtors (optional subsystem) ---

	CreditEntries(ctx context.Context, shop ShopID, date DayDate) ([]CreditEntry, error)
	UpsertCreditEntries(ctx context.Context, shop ShopID, date DayDate, entries []CreditEntry) error
	UpsertDebtor(ctx context.Context, shop ShopID, personName string) error

	// --- Approval requests ---

	CreateApprovalRequest(ctx context.Context, req ApprovalRequest) (string, error)
	ResolveApprovalRequest(ctx context.Context, id string, status RequestStatus) error
	PendingApprovalRequests(ctx context.Context, shop ShopID) ([]ApprovalRequest, error)

	// --- Archive index ---

	AppendPDFArchive(ctx context.Context, rec PDFArchive) error
}

// ShopStore extends Store with shop registry access; only the API
// layer needs it.
type ShopStore interface {
	Store

	Shops(ctx context.Context) ([]Shop, error)
	SaveShop(ctx context.Context, shop Shop) error
	SaveProduct(ctx context.Context, p Product) error

	// Debtors lists the shop's credit customer registry; returns
	// ErrCreditLedgerNotConfigured when the subsystem is absent.
	Debtors(ctx context.Context, shop ShopID) ([]Debtor, error)
}
