/*
Package ledger implements the daily ledger reconciliation and rollover
engine for multi-outlet retail shops.

PURPOSE:
  One ledger covers one (shop, calendar date) pair: a set of per-product
  stock lines plus a single cash register snapshot. The engine derives
  sale quantities from stock movement, reconciles counted cash against
  the expected counter closing, carries closing balances forward into
  the next day, and gates mutation through a two-party lock/approval
  workflow.

KEY CONCEPTS IN THIS FILE (types.go):
  - StockLine:   One product's stock movement for one shop-day
  - CashLedger:  The cash register snapshot for one shop-day
  - ExtraTransaction / CreditEntry: Side flows feeding reconciliation
  - ApprovalRequest: Staff/admin workflow records
  - Session:     Explicit caller context (shop, date, actor, role)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every currency amount; ints for
     unit counts (bottles, banknotes). No float money.
  2. Derived fields are snapshots: sold qty, sale value and every cash
     total are recomputed in one pass from raw fields before persisting.
     Stored copies are never treated as source of truth.
  3. Negative derived values (overcount, shortage) are data, not errors.

SEE ALSO:
  - stock.go:     Stock movement calculator
  - reconcile.go: Cash reconciliation engine
  - rollover.go:  Day carry-forward orchestrator
  - workflow.go:  Lock/approval state machine
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShopID string
type ProductID string

// Role determines which workflow actions an actor may take.
type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Session is the explicit caller context passed into every service
// entry point. It replaces ambient "currently selected shop" state.
type Session struct {
	Shop  ShopID
	Date  DayDate
	Actor string
	Role  Role
}

// =============================================================================
// SHOP & PRODUCT REGISTRY
// =============================================================================

type Shop struct {
	ID        ShopID
	Name      string
	CreatedAt time.Time
}

// Product is a catalog row. MRP is the fixed unit price used for all
// derived sale values; rollover seeds one stock line per active product.
type Product struct {
	ID        ProductID
	ShopID    ShopID
	BrandName string
	SizeML    int
	MRP       decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
}

// =============================================================================
// STOCK LINE - One product's movement for one shop-day
// =============================================================================

// StockLine records stock movement for a single product on a single day.
//
// Raw fields (user- or rollover-set): OpeningStock, Purchases, Transfer,
// ClosingStock. Derived fields (SoldQty, SaleValue, ClosingStockValue)
// are recomputed from the raw fields on every edit; see stock.go.
//
// SoldQty may legitimately go negative (physical overcount or data-entry
// error). It is surfaced for human review, never clamped or rejected.
type StockLine struct {
	ID        string
	ShopID    ShopID
	ProductID ProductID
	EntryDate DayDate

	OpeningStock int // units at day start (set by rollover only)
	Purchases    int // units received during the day
	Transfer     int // units moved out (inter-shop)
	ClosingStock int // units counted at day end

	SoldQty           int
	SaleValue         decimal.Decimal
	ClosingStockValue decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// CASH LEDGER - The register snapshot for one shop-day
// =============================================================================

// NoteCount is a counted stack of one banknote denomination.
type NoteCount struct {
	Face  int64 // face value, e.g. 500
	Count int
}

// StandardNoteFaces is the full INR note set, largest first.
var StandardNoteFaces = []int64{500, 200, 100, 50, 20, 10, 5, 2, 1}

// StandardNotes returns a zeroed count row per standard face value.
func StandardNotes() []NoteCount {
	notes := make([]NoteCount, len(StandardNoteFaces))
	for i, f := range StandardNoteFaces {
		notes[i] = NoteCount{Face: f}
	}
	return notes
}

// DigitalPayment is one named digital channel total for the day
// (e.g. "Google Pay", "PhonePe/Paytm", "Bank Transfer"). The engine
// never interprets channel names; it only sums them.
type DigitalPayment struct {
	Channel string
	Amount  decimal.Decimal
}

// CashLedger holds the raw cash register inputs for one shop-day plus
// the derived reconciliation snapshot last computed from them.
//
// Exactly one CashLedger exists per (shop, date). CounterOpening is set
// by rollover from the previous day's CounterClosing.
type CashLedger struct {
	ID        string
	ShopID    ShopID
	EntryDate DayDate

	// Opening
	CounterOpening decimal.Decimal

	// Physical cash: note counts plus a direct coins amount.
	Notes []NoteCount
	Coins decimal.Decimal

	// Digital channels.
	Digital []DigitalPayment

	// Deductions: cash physically removed from the counter.
	BankDeposit decimal.Decimal
	CashToHouse decimal.Decimal

	// Derived snapshot. Recomputed via Reconcile before every save;
	// stored values are a convenience copy, not source of truth.
	TotalSaleValue   decimal.Decimal
	PhysicalCash     decimal.Decimal
	TotalDigital     decimal.Decimal
	TotalBottlesSold int
	CounterClosing   decimal.Decimal
	CashDifference   decimal.Decimal
	CashStatus       CashStatus

	// Workflow flags. Invariant: Approved implies Locked.
	Locked          bool
	Approved        bool
	UnlockRequested bool
	LockedAt        *time.Time
	ApprovedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayState is the lock/approval state derived from the workflow flags.
type DayState string

const (
	StateOpen          DayState = "open"           // editable by staff
	StateLockedPending DayState = "locked_pending" // locked, awaiting admin
	StateApproved      DayState = "approved"       // finalized, read-only
)

// State derives the workflow state from the Locked/Approved flags.
func (c *CashLedger) State() DayState {
	switch {
	case c.Locked && c.Approved:
		return StateApproved
	case c.Locked:
		return StateLockedPending
	default:
		return StateOpen
	}
}

// =============================================================================
// EXTRA TRANSACTIONS - Incidental income/expenses for the day
// =============================================================================

type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
)

// ExtraTransaction is an incidental cash flow attached to the day's
// CashLedger: miscellaneous income (bottle deposits, found cash) or
// expense (cleaning, transport). Feeds counter closing.
type ExtraTransaction struct {
	ID           string
	CashLedgerID string
	Type         TransactionType
	Description  string
	Amount       decimal.Decimal
	CreatedAt    time.Time
}

// =============================================================================
// CREDIT ENTRIES & DEBTORS
// =============================================================================

// CreditEntry records goods handed over without immediate payment.
// Credit offsets an apparent cash shortage but is NOT cash received,
// so it feeds cash status and never counter closing.
type CreditEntry struct {
	ID         string
	ShopID     ShopID
	EntryDate  DayDate
	PersonName string
	Amount     decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Debtor is a per-shop registry of credit customers, kept for name
// autocomplete and history. Not financially authoritative.
type Debtor struct {
	ID         string
	ShopID     ShopID
	PersonName string
	CreatedAt  time.Time
}

// =============================================================================
// APPROVAL REQUESTS - Workflow records
// =============================================================================

type RequestType string

const (
	RequestLock   RequestType = "lock"
	RequestUnlock RequestType = "unlock"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ApprovalRequest is one staff-initiated workflow item awaiting admin
// action. Each (shop, date) may accumulate multiple requests over time;
// resolution never deletes them.
type ApprovalRequest struct {
	ID          string
	ShopID      ShopID
	EntryDate   DayDate
	Type        RequestType
	RequestedBy string
	Status      RequestStatus
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// =============================================================================
// PDF ARCHIVE INDEX - Append-only report log
// =============================================================================

// PDFArchive is an index record appended when a daily report is
// generated. Purely a log; nothing in reconciliation reads it.
type PDFArchive struct {
	ID        string
	ShopID    ShopID
	EntryDate DayDate
	FileName  string
	MonthYear string
	CreatedAt time.Time
}
