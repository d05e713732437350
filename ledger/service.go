/*
service.go - Day service: the entry point the presentation layer consumes

PURPOSE:
  Ties the calculators, rollover, and store together behind two calls:

    OpenDay  ensure the day's rows exist, carry forward from yesterday,
             load everything, reconcile, return the full view
    SaveDay  gate on lock state, recompute every derived field in one
             deterministic pass from the submitted raw fields, persist

  All caller context arrives in an explicit Session; the service keeps
  no ambient "current shop" state.

EDIT GATING:
  Staff saves against a locked day are rejected here with ErrDayLocked.
  Admin saves pass: admins correct locked days directly, as the admin
  entry screen always allowed.

OPTIONAL CREDIT SUBSYSTEM:
  Credit entry and debtor reads/writes degrade gracefully when the
  store reports ErrCreditLedgerNotConfigured: the save proceeds with
  empty credit data. Stock and cash persistence never depend on it.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VIEW & INPUT SHAPES
// =============================================================================

// DayView is everything the presentation layer needs for one shop-day.
type DayView struct {
	Cash            *CashLedger
	Lines           []StockLine
	Extras          []ExtraTransaction
	Credits         []CreditEntry
	Result          ReconciliationResult
	RolloverApplied bool
}

// StockLineInput carries the three staff-editable raw fields for one
// product. Opening stock is rollover-owned and not accepted here.
type StockLineInput struct {
	ProductID    ProductID
	Purchases    int
	Transfer     int
	ClosingStock int
}

// ExtraTransactionInput is one incidental income/expense row.
type ExtraTransactionInput struct {
	Type        TransactionType
	Description string
	Amount      decimal.Decimal
}

// CreditInput is one credit sale row.
type CreditInput struct {
	PersonName string
	Amount     decimal.Decimal
}

// DayInput is the full editable surface of a shop-day as submitted on
// save. Derived fields are never accepted; they are recomputed.
type DayInput struct {
	Lines       []StockLineInput
	Notes       []NoteCount
	Coins       decimal.Decimal
	Digital     []DigitalPayment
	BankDeposit decimal.Decimal
	CashToHouse decimal.Decimal
	Extras      []ExtraTransactionInput
	Credits     []CreditInput
}

// =============================================================================
// DAY SERVICE
// =============================================================================

type DayService struct {
	Store    Store
	Rollover *Rollover
	Workflow *Workflow
}

func NewDayService(store Store) *DayService {
	return &DayService{
		Store:    store,
		Rollover: NewRollover(store),
		Workflow: NewWorkflow(store),
	}
}

// OpenDay prepares and returns a shop-day: seeds zero stock rows for
// every active product, carries forward from the previous day
// (idempotently), ensures the cash row exists, and reconciles.
func (d *DayService) OpenDay(ctx context.Context, s Session) (*DayView, error) {
	products, err := d.Store.Products(ctx, s.Shop)
	if err != nil {
		return nil, fmt.Errorf("open day: load products: %w", err)
	}

	if err := d.ensureStockRows(ctx, s, products); err != nil {
		return nil, err
	}

	applied, err := d.Rollover.CarryForward(ctx, s.Shop, s.Date)
	if err != nil {
		return nil, fmt.Errorf("open day: %w", err)
	}

	view, err := d.loadDay(ctx, s)
	if err != nil {
		return nil, err
	}
	view.RolloverApplied = applied
	return view, nil
}

// SaveDay applies the submitted raw fields, recomputes every derived
// value in one pass, and persists the snapshot. Stock lines go in one
// batch upsert; extra transactions are replaced wholesale.
func (d *DayService) SaveDay(ctx context.Context, s Session, input DayInput) (*DayView, error) {
	cash, err := d.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		if !IsNotFound(err) {
			return nil, fmt.Errorf("save day: load cash ledger: %w", err)
		}
		cash = NewCashLedger(s.Shop, s.Date)
	}

	if cash.Locked && s.Role != RoleAdmin {
		return nil, fmt.Errorf("save day %s/%s: %w", s.Shop, s.Date, ErrDayLocked)
	}

	lines, err := d.applyStockInput(ctx, s, input.Lines)
	if err != nil {
		return nil, err
	}

	// Raw cash fields. Counter opening stays rollover-owned.
	if input.Notes != nil {
		cash.Notes = input.Notes
	}
	cash.Coins = input.Coins
	cash.Digital = input.Digital
	cash.BankDeposit = input.BankDeposit
	cash.CashToHouse = input.CashToHouse

	extras := make([]ExtraTransaction, 0, len(input.Extras))
	for _, t := range input.Extras {
		extras = append(extras, ExtraTransaction{
			Type:        t.Type,
			Description: t.Description,
			Amount:      t.Amount,
		})
	}

	credits := make([]CreditEntry, 0, len(input.Credits))
	for _, c := range input.Credits {
		credits = append(credits, CreditEntry{
			ShopID:     s.Shop,
			EntryDate:  s.Date,
			PersonName: c.PersonName,
			Amount:     c.Amount,
		})
	}

	// Persist credits before reconciling: when the subsystem is absent
	// the entries are dropped, and the snapshot must reflect the empty
	// credit data every later reload will see.
	stored, err := d.saveCredits(ctx, s, credits)
	if err != nil {
		return nil, err
	}
	if !stored {
		credits = nil
	}

	// One deterministic pass over full current state; the ledger row
	// only ever stores the output.
	result := Reconcile(cash, lines, extras, credits)
	result.ApplySnapshot(cash)

	if err := d.Store.UpsertCashLedger(ctx, cash); err != nil {
		return nil, fmt.Errorf("save day: save cash ledger: %w", err)
	}
	if err := d.Store.ReplaceExtraTransactions(ctx, cash.ID, extras); err != nil {
		return nil, fmt.Errorf("save day: save extra transactions: %w", err)
	}

	return &DayView{
		Cash:    cash,
		Lines:   lines,
		Extras:  extras,
		Credits: credits,
		Result:  result,
	}, nil
}

// ArchivePDF appends a report record to the archive index.
func (d *DayService) ArchivePDF(ctx context.Context, s Session, fileName string) error {
	rec := PDFArchive{
		ShopID:    s.Shop,
		EntryDate: s.Date,
		FileName:  fileName,
		MonthYear: s.Date.MonthYear(),
	}
	if err := d.Store.AppendPDFArchive(ctx, rec); err != nil {
		return fmt.Errorf("archive pdf: %w", err)
	}
	return nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// ensureStockRows creates a zero stock line for every active product
// that has none yet, so rollover and the entry table always see a full
// product set.
func (d *DayService) ensureStockRows(ctx context.Context, s Session, products []Product) error {
	existing, err := d.Store.StockLines(ctx, s.Shop, s.Date)
	if err != nil {
		return fmt.Errorf("open day: load stock lines: %w", err)
	}
	have := make(map[ProductID]bool, len(existing))
	for _, l := range existing {
		have[l.ProductID] = true
	}

	var missing []StockLine
	for _, p := range products {
		if !p.IsActive || have[p.ID] {
			continue
		}
		line := StockLine{ShopID: s.Shop, ProductID: p.ID, EntryDate: s.Date}
		RecomputeStockLine(&line, p.MRP)
		missing = append(missing, line)
	}
	if len(missing) == 0 {
		return nil
	}
	if err := d.Store.UpsertStockLines(ctx, missing); err != nil {
		return fmt.Errorf("open day: seed stock lines: %w", err)
	}
	return nil
}

// applyStockInput merges the submitted raw fields into the day's stored
// lines, recomputes, and batch-upserts. Lines absent from the input
// keep their stored values and still participate in reconciliation.
func (d *DayService) applyStockInput(ctx context.Context, s Session, inputs []StockLineInput) ([]StockLine, error) {
	lines, err := d.Store.StockLines(ctx, s.Shop, s.Date)
	if err != nil {
		return nil, fmt.Errorf("save day: load stock lines: %w", err)
	}
	mrps, err := d.Rollover.productMRPs(ctx, s.Shop)
	if err != nil {
		return nil, err
	}

	// Grow the slice for unknown products first so the index below
	// stays valid while lines are mutated in place.
	have := make(map[ProductID]bool, len(lines))
	for _, l := range lines {
		have[l.ProductID] = true
	}
	for _, in := range inputs {
		if !have[in.ProductID] {
			have[in.ProductID] = true
			lines = append(lines, StockLine{ShopID: s.Shop, ProductID: in.ProductID, EntryDate: s.Date})
		}
	}

	byProduct := make(map[ProductID]*StockLine, len(lines))
	for i := range lines {
		byProduct[lines[i].ProductID] = &lines[i]
	}

	changed := make([]StockLine, 0, len(inputs))
	for _, in := range inputs {
		line := byProduct[in.ProductID]
		line.Purchases = in.Purchases
		line.Transfer = in.Transfer
		line.ClosingStock = in.ClosingStock
		RecomputeStockLine(line, mrps[in.ProductID])
		changed = append(changed, *line)
	}

	if len(changed) > 0 {
		if err := d.Store.UpsertStockLines(ctx, changed); err != nil {
			return nil, fmt.Errorf("save day: save stock lines: %w", err)
		}
	}
	return lines, nil
}

// saveCredits persists the day's credit entries and debtor names.
// Reports whether the entries were actually stored: false means the
// credit subsystem is absent and the caller must reconcile without
// them.
func (d *DayService) saveCredits(ctx context.Context, s Session, credits []CreditEntry) (bool, error) {
	err := d.Store.UpsertCreditEntries(ctx, s.Shop, s.Date, credits)
	if errors.Is(err, ErrCreditLedgerNotConfigured) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("save day: save credit entries: %w", err)
	}

	seen := make(map[string]bool, len(credits))
	for _, c := range credits {
		if c.PersonName == "" || seen[c.PersonName] {
			continue
		}
		seen[c.PersonName] = true
		if err := d.Store.UpsertDebtor(ctx, s.Shop, c.PersonName); err != nil && !errors.Is(err, ErrCreditLedgerNotConfigured) {
			return false, fmt.Errorf("save day: save debtor %q: %w", c.PersonName, err)
		}
	}
	return true, nil
}

func (d *DayService) loadDay(ctx context.Context, s Session) (*DayView, error) {
	lines, err := d.Store.StockLines(ctx, s.Shop, s.Date)
	if err != nil {
		return nil, fmt.Errorf("open day: load stock lines: %w", err)
	}

	cash, err := d.Store.CashLedger(ctx, s.Shop, s.Date)
	if err != nil {
		if !IsNotFound(err) {
			return nil, fmt.Errorf("open day: load cash ledger: %w", err)
		}
		cash = NewCashLedger(s.Shop, s.Date)
		if err := d.Store.UpsertCashLedger(ctx, cash); err != nil {
			return nil, fmt.Errorf("open day: create cash ledger: %w", err)
		}
	}

	extras, err := d.Store.ExtraTransactions(ctx, cash.ID)
	if err != nil {
		return nil, fmt.Errorf("open day: load extra transactions: %w", err)
	}

	credits, err := d.Store.CreditEntries(ctx, s.Shop, s.Date)
	if err != nil {
		if !errors.Is(err, ErrCreditLedgerNotConfigured) {
			return nil, fmt.Errorf("open day: load credit entries: %w", err)
		}
		credits = nil
	}

	result := Reconcile(cash, lines, extras, credits)
	return &DayView{
		Cash:    cash,
		Lines:   lines,
		Extras:  extras,
		Credits: credits,
		Result:  result,
	}, nil
}
