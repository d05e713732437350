/*
Package sqlite provides a SQLite-backed implementation of the record
store consumed by the ledger engine.

PURPOSE:
  Implements ledger.Store / ledger.ShopStore on database/sql. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  shops               Outlet registry
  products            Catalog (brand, size, MRP, active flag)
  daily_stock_lines   One row per (shop, product, date)
  daily_cash_ledgers  One row per (shop, date)
  extra_transactions  Incidental income/expenses per cash ledger
  credit_entries      Credit sales per shop-day (optional subsystem)
  debtors             Credit customer registry (optional subsystem)
  approval_requests   Lock/unlock workflow records
  pdf_archives        Append-only report index

UPSERT KEYS:
  Stock lines match on (shop_id, product_id, entry_date); cash ledgers
  on (shop_id, entry_date). Batch stock upserts run inside a single
  database transaction.

OPTIONAL CREDIT SUBSYSTEM:
  Deployments without the credit ledger open the store with
  WithoutCreditLedger(). Credit/debtor methods then return the typed
  ledger.ErrCreditLedgerNotConfigured instead of callers sniffing
  "no such table" out of driver errors.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/daybook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.NewDayService(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/daybook/ledger"
)

// Store implements ledger.ShopStore using SQLite.
type Store struct {
	db             *sql.DB
	creditsEnabled bool
}

// Option configures a Store.
type Option func(*Store)

// WithoutCreditLedger disables the credit entries / debtors subsystem.
func WithoutCreditLedger() Option {
	return func(s *Store) { s.creditsEnabled = false }
}

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, creditsEnabled: true}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shops (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		brand_name TEXT NOT NULL,
		size_ml INTEGER NOT NULL,
		mrp TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_shop ON products(shop_id);

	CREATE TABLE IF NOT EXISTS daily_stock_lines (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		opening_stock INTEGER NOT NULL DEFAULT 0,
		purchases INTEGER NOT NULL DEFAULT 0,
		transfer INTEGER NOT NULL DEFAULT 0,
		closing_stock INTEGER NOT NULL DEFAULT 0,
		sold_qty INTEGER NOT NULL DEFAULT 0,
		sale_value TEXT NOT NULL DEFAULT '0',
		closing_stock_value TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(shop_id, product_id, entry_date)
	);
	CREATE INDEX IF NOT EXISTS idx_stock_shop_date ON daily_stock_lines(shop_id, entry_date);

	CREATE TABLE IF NOT EXISTS daily_cash_ledgers (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		counter_opening TEXT NOT NULL DEFAULT '0',
		notes_json TEXT NOT NULL DEFAULT '[]',
		coins TEXT NOT NULL DEFAULT '0',
		digital_json TEXT NOT NULL DEFAULT '[]',
		bank_deposit TEXT NOT NULL DEFAULT '0',
		cash_to_house TEXT NOT NULL DEFAULT '0',
		total_sale_value TEXT NOT NULL DEFAULT '0',
		physical_cash TEXT NOT NULL DEFAULT '0',
		total_digital TEXT NOT NULL DEFAULT '0',
		total_bottles_sold INTEGER NOT NULL DEFAULT 0,
		counter_closing TEXT NOT NULL DEFAULT '0',
		cash_difference TEXT NOT NULL DEFAULT '0',
		cash_status TEXT NOT NULL DEFAULT 'balanced',
		is_locked INTEGER NOT NULL DEFAULT 0,
		is_approved INTEGER NOT NULL DEFAULT 0,
		unlock_requested INTEGER NOT NULL DEFAULT 0,
		locked_at TEXT,
		approved_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(shop_id, entry_date)
	);

	CREATE TABLE IF NOT EXISTS extra_transactions (
		id TEXT PRIMARY KEY,
		cash_ledger_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_extra_cash ON extra_transactions(cash_ledger_id);

	CREATE TABLE IF NOT EXISTS approval_requests (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		request_type TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		resolved_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_shop_status ON approval_requests(shop_id, status);

	CREATE TABLE IF NOT EXISTS pdf_archives (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		file_name TEXT NOT NULL,
		month_year TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if s.creditsEnabled {
		creditSchema := `
		CREATE TABLE IF NOT EXISTS credit_entries (
			id TEXT PRIMARY KEY,
			shop_id TEXT NOT NULL,
			entry_date TEXT NOT NULL,
			person_name TEXT NOT NULL,
			amount TEXT NOT NULL DEFAULT '0',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(shop_id, entry_date, person_name)
		);

		CREATE TABLE IF NOT EXISTS debtors (
			id TEXT PRIMARY KEY,
			shop_id TEXT NOT NULL,
			person_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(shop_id, person_name)
		);
		`
		if _, err := s.db.Exec(creditSchema); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

var idSeq atomic.Int64

// newID is unique within the process even when called in a tight loop.
func newID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), idSeq.Add(1))
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDay(s string) ledger.DayDate {
	d, _ := ledger.ParseDayDate(s)
	return d
}

// =============================================================================
// SHOPS & PRODUCTS
// =============================================================================

func (s *Store) Shops(ctx context.Context) ([]ledger.Shop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM shops ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	var out []ledger.Shop
	for rows.Next() {
		var sh ledger.Shop
		var created string
		if err := rows.Scan(&sh.ID, &sh.Name, &created); err != nil {
			return nil, err
		}
		sh.CreatedAt = parseTime(created)
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) SaveShop(ctx context.Context, shop ledger.Shop) error {
	if shop.ID == "" {
		shop.ID = ledger.ShopID(newID("shop"))
	}
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shops (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		shop.ID, shop.Name, fmtTime(shop.CreatedAt))
	if err != nil {
		return fmt.Errorf("save shop: %w", err)
	}
	return nil
}

func (s *Store) SaveProduct(ctx context.Context, p ledger.Product) error {
	if p.ID == "" {
		p.ID = ledger.ProductID(newID("prod"))
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, shop_id, brand_name, size_ml, mrp, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			brand_name = excluded.brand_name,
			size_ml = excluded.size_ml,
			mrp = excluded.mrp,
			is_active = excluded.is_active`,
		p.ID, p.ShopID, p.BrandName, p.SizeML, p.MRP.String(), p.IsActive, fmtTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *Store) Products(ctx context.Context, shop ledger.ShopID) ([]ledger.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop_id, brand_name, size_ml, mrp, is_active, created_at
		FROM products WHERE shop_id = ? ORDER BY brand_name`, shop)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []ledger.Product
	for rows.Next() {
		var p ledger.Product
		var mrp, created string
		if err := rows.Scan(&p.ID, &p.ShopID, &p.BrandName, &p.SizeML, &mrp, &p.IsActive, &created); err != nil {
			return nil, err
		}
		p.MRP = parseDec(mrp)
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// STOCK LINES
// =============================================================================

const stockCols = `id, shop_id, product_id, entry_date, opening_stock, purchases,
	transfer, closing_stock, sold_qty, sale_value, closing_stock_value, created_at, updated_at`

func scanStockLine(scan func(...any) error) (ledger.StockLine, error) {
	var l ledger.StockLine
	var date, saleValue, closingValue, created, updated string
	err := scan(&l.ID, &l.ShopID, &l.ProductID, &date, &l.OpeningStock, &l.Purchases,
		&l.Transfer, &l.ClosingStock, &l.SoldQty, &saleValue, &closingValue, &created, &updated)
	if err != nil {
		return l, err
	}
	l.EntryDate = parseDay(date)
	l.SaleValue = parseDec(saleValue)
	l.ClosingStockValue = parseDec(closingValue)
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	return l, nil
}

func (s *Store) StockLines(ctx context.Context, shop ledger.ShopID, date ledger.DayDate) ([]ledger.StockLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stockCols+` FROM daily_stock_lines
		WHERE shop_id = ? AND entry_date = ? ORDER BY product_id`, shop, date.String())
	if err != nil {
		return nil, fmt.Errorf("query stock lines: %w", err)
	}
	defer rows.Close()

	var out []ledger.StockLine
	for rows.Next() {
		l, err := scanStockLine(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) StockLine(ctx context.Context, shop ledger.ShopID, date ledger.DayDate, product ledger.ProductID) (*ledger.StockLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+stockCols+` FROM daily_stock_lines
		WHERE shop_id = ? AND entry_date = ? AND product_id = ?`, shop, date.String(), product)

	l, err := scanStockLine(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query stock line: %w", err)
	}
	return &l, nil
}

func (s *Store) UpsertStockLines(ctx context.Context, lines []ledger.StockLine) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert stock lines: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_stock_lines (`+stockCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(shop_id, product_id, entry_date) DO UPDATE SET
			opening_stock = excluded.opening_stock,
			purchases = excluded.purchases,
			transfer = excluded.transfer,
			closing_stock = excluded.closing_stock,
			sold_qty = excluded.sold_qty,
			sale_value = excluded.sale_value,
			closing_stock_value = excluded.closing_stock_value,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("upsert stock lines: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, l := range lines {
		if l.ID == "" {
			l.ID = newID("line")
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		_, err := stmt.ExecContext(ctx, l.ID, l.ShopID, l.ProductID, l.EntryDate.String(),
			l.OpeningStock, l.Purchases, l.Transfer, l.ClosingStock, l.SoldQty,
			l.SaleValue.String(), l.ClosingStockValue.String(), fmtTime(l.CreatedAt), fmtTime(now))
		if err != nil {
			return fmt.Errorf("upsert stock line %s/%s: %w", l.ProductID, l.EntryDate, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// CASH LEDGER
// =============================================================================

func (s *Store) CashLedger(ctx context.Context, shop ledger.ShopID, date ledger.DayDate) (*ledger.CashLedger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, shop_id, entry_date, counter_opening, notes_json, coins, digital_json,
			bank_deposit, cash_to_house, total_sale_value, physical_cash, total_digital,
			total_bottles_sold, counter_closing, cash_difference, cash_status,
			is_locked, is_approved, unlock_requested, locked_at, approved_at,
			created_at, updated_at
		FROM daily_cash_ledgers WHERE shop_id = ? AND entry_date = ?`, shop, date.String())

	var c ledger.CashLedger
	var entryDate, opening, notesJSON, coins, digitalJSON, bankDeposit, cashToHouse string
	var totalSale, physical, totalDigital, counterClosing, cashDiff, status string
	var lockedAt, approvedAt sql.NullString
	var created, updated string

	err := row.Scan(&c.ID, &c.ShopID, &entryDate, &opening, &notesJSON, &coins, &digitalJSON,
		&bankDeposit, &cashToHouse, &totalSale, &physical, &totalDigital,
		&c.TotalBottlesSold, &counterClosing, &cashDiff, &status,
		&c.Locked, &c.Approved, &c.UnlockRequested, &lockedAt, &approvedAt,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cash ledger: %w", err)
	}

	c.EntryDate = parseDay(entryDate)
	c.CounterOpening = parseDec(opening)
	c.Coins = parseDec(coins)
	c.BankDeposit = parseDec(bankDeposit)
	c.CashToHouse = parseDec(cashToHouse)
	c.TotalSaleValue = parseDec(totalSale)
	c.PhysicalCash = parseDec(physical)
	c.TotalDigital = parseDec(totalDigital)
	c.CounterClosing = parseDec(counterClosing)
	c.CashDifference = parseDec(cashDiff)
	c.CashStatus = ledger.CashStatus(status)
	c.LockedAt = parseTimePtr(lockedAt)
	c.ApprovedAt = parseTimePtr(approvedAt)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)

	if err := json.Unmarshal([]byte(notesJSON), &c.Notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if err := json.Unmarshal([]byte(digitalJSON), &c.Digital); err != nil {
		return nil, fmt.Errorf("decode digital channels: %w", err)
	}
	return &c, nil
}

func (s *Store) UpsertCashLedger(ctx context.Context, cash *ledger.CashLedger) error {
	now := time.Now().UTC()
	if cash.ID == "" {
		// Keep the existing row's id when one is already there.
		var id string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM daily_cash_ledgers WHERE shop_id = ? AND entry_date = ?`,
			cash.ShopID, cash.EntryDate.String()).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			cash.ID = newID("cash")
		case err != nil:
			return fmt.Errorf("upsert cash ledger: %w", err)
		default:
			cash.ID = id
		}
	}
	if cash.CreatedAt.IsZero() {
		cash.CreatedAt = now
	}
	cash.UpdatedAt = now

	notesJSON, err := json.Marshal(cash.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	digitalJSON, err := json.Marshal(cash.Digital)
	if err != nil {
		return fmt.Errorf("encode digital channels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_cash_ledgers (
			id, shop_id, entry_date, counter_opening, notes_json, coins, digital_json,
			bank_deposit, cash_to_house, total_sale_value, physical_cash, total_digital,
			total_bottles_sold, counter_closing, cash_difference, cash_status,
			is_locked, is_approved, unlock_requested, locked_at, approved_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(shop_id, entry_date) DO UPDATE SET
			counter_opening = excluded.counter_opening,
			notes_json = excluded.notes_json,
			coins = excluded.coins,
			digital_json = excluded.digital_json,
			bank_deposit = excluded.bank_deposit,
			cash_to_house = excluded.cash_to_house,
			total_sale_value = excluded.total_sale_value,
			physical_cash = excluded.physical_cash,
			total_digital = excluded.total_digital,
			total_bottles_sold = excluded.total_bottles_sold,
			counter_closing = excluded.counter_closing,
			cash_difference = excluded.cash_difference,
			cash_status = excluded.cash_status,
			is_locked = excluded.is_locked,
			is_approved = excluded.is_approved,
			unlock_requested = excluded.unlock_requested,
			locked_at = excluded.locked_at,
			approved_at = excluded.approved_at,
			updated_at = excluded.updated_at`,
		cash.ID, cash.ShopID, cash.EntryDate.String(), cash.CounterOpening.String(),
		string(notesJSON), cash.Coins.String(), string(digitalJSON),
		cash.BankDeposit.String(), cash.CashToHouse.String(), cash.TotalSaleValue.String(),
		cash.PhysicalCash.String(), cash.TotalDigital.String(), cash.TotalBottlesSold,
		cash.CounterClosing.String(), cash.CashDifference.String(), string(cash.CashStatus),
		cash.Locked, cash.Approved, cash.UnlockRequested,
		fmtTimePtr(cash.LockedAt), fmtTimePtr(cash.ApprovedAt),
		fmtTime(cash.CreatedAt), fmtTime(cash.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert cash ledger: %w", err)
	}
	return nil
}

// =============================================================================
// EXTRA TRANSACTIONS
// =============================================================================

func (s *Store) ExtraTransactions(ctx context.Context, cashLedgerID string) ([]ledger.ExtraTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cash_ledger_id, tx_type, description, amount, created_at
		FROM extra_transactions WHERE cash_ledger_id = ? ORDER BY created_at, id`, cashLedgerID)
	if err != nil {
		return nil, fmt.Errorf("query extra transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.ExtraTransaction
	for rows.Next() {
		var t ledger.ExtraTransaction
		var amount, created string
		if err := rows.Scan(&t.ID, &t.CashLedgerID, &t.Type, &t.Description, &amount, &created); err != nil {
			return nil, err
		}
		t.Amount = parseDec(amount)
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceExtraTransactions(ctx context.Context, cashLedgerID string, txs []ledger.ExtraTransaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace extra transactions: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extra_transactions WHERE cash_ledger_id = ?`, cashLedgerID); err != nil {
		return fmt.Errorf("replace extra transactions: clear: %w", err)
	}

	now := time.Now().UTC()
	for _, t := range txs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO extra_transactions (id, cash_ledger_id, tx_type, description, amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			newID("extra"), cashLedgerID, string(t.Type),
			t.Description, t.Amount.String(), fmtTime(now))
		if err != nil {
			return fmt.Errorf("replace extra transactions: insert: %w", err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// CREDIT ENTRIES & DEBTORS (optional subsystem)
// =============================================================================

func (s *Store) CreditEntries(ctx context.Context, shop ledger.ShopID, date ledger.DayDate) ([]ledger.CreditEntry, error) {
	if !s.creditsEnabled {
		return nil, ledger.ErrCreditLedgerNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop_id, entry_date, person_name, amount, created_at, updated_at
		FROM credit_entries WHERE shop_id = ? AND entry_date = ? ORDER BY person_name`,
		shop, date.String())
	if err != nil {
		return nil, fmt.Errorf("query credit entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.CreditEntry
	for rows.Next() {
		var e ledger.CreditEntry
		var entryDate, amount, created, updated string
		if err := rows.Scan(&e.ID, &e.ShopID, &entryDate, &e.PersonName, &amount, &created, &updated); err != nil {
			return nil, err
		}
		e.EntryDate = parseDay(entryDate)
		e.Amount = parseDec(amount)
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpsertCreditEntries(ctx context.Context, shop ledger.ShopID, date ledger.DayDate, entries []ledger.CreditEntry) error {
	if !s.creditsEnabled {
		return ledger.ErrCreditLedgerNotConfigured
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert credit entries: begin: %w", err)
	}
	defer tx.Rollback()

	// Full replace keeps the day's rows in step with what was submitted.
	if _, err := tx.ExecContext(ctx, `DELETE FROM credit_entries WHERE shop_id = ? AND entry_date = ?`,
		shop, date.String()); err != nil {
		return fmt.Errorf("upsert credit entries: clear: %w", err)
	}

	now := time.Now().UTC()
	for _, e := range entries {
		if e.PersonName == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO credit_entries (id, shop_id, entry_date, person_name, amount, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(shop_id, entry_date, person_name) DO UPDATE SET
				amount = excluded.amount,
				updated_at = excluded.updated_at`,
			newID("credit"), shop, date.String(), e.PersonName,
			e.Amount.String(), fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("upsert credit entry %q: %w", e.PersonName, err)
		}
	}
	return tx.Commit()
}

func (s *Store) UpsertDebtor(ctx context.Context, shop ledger.ShopID, personName string) error {
	if !s.creditsEnabled {
		return ledger.ErrCreditLedgerNotConfigured
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debtors (id, shop_id, person_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(shop_id, person_name) DO NOTHING`,
		newID("debtor"), shop, personName, fmtTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("upsert debtor: %w", err)
	}
	return nil
}

// Debtors returns the shop's debtor registry, name-sorted.
func (s *Store) Debtors(ctx context.Context, shop ledger.ShopID) ([]ledger.Debtor, error) {
	if !s.creditsEnabled {
		return nil, ledger.ErrCreditLedgerNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop_id, person_name, created_at FROM debtors
		WHERE shop_id = ? ORDER BY person_name`, shop)
	if err != nil {
		return nil, fmt.Errorf("query debtors: %w", err)
	}
	defer rows.Close()

	var out []ledger.Debtor
	for rows.Next() {
		var d ledger.Debtor
		var created string
		if err := rows.Scan(&d.ID, &d.ShopID, &d.PersonName, &created); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTime(created)
		out = append(out, d)
	}
	return out, rows.Err()
}

// =============================================================================
// APPROVAL REQUESTS
// =============================================================================

func (s *Store) CreateApprovalRequest(ctx context.Context, req ledger.ApprovalRequest) (string, error) {
	if req.ID == "" {
		req.ID = newID("req")
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (id, shop_id, entry_date, request_type, requested_by, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.ShopID, req.EntryDate.String(), string(req.Type), req.RequestedBy,
		string(req.Status), fmtTime(req.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create approval request: %w", err)
	}
	return req.ID, nil
}

func (s *Store) ResolveApprovalRequest(ctx context.Context, id string, status ledger.RequestStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_requests SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(status), fmtTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("resolve approval request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve approval request: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already-resolved.
		var current string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM approval_requests WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve approval request: %w", err)
		}
		return ledger.ErrRequestNotPending
	}
	return nil
}

func (s *Store) PendingApprovalRequests(ctx context.Context, shop ledger.ShopID) ([]ledger.ApprovalRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shop_id, entry_date, request_type, requested_by, status, created_at, resolved_at
		FROM approval_requests WHERE shop_id = ? AND status = 'pending' ORDER BY created_at`, shop)
	if err != nil {
		return nil, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var out []ledger.ApprovalRequest
	for rows.Next() {
		var req ledger.ApprovalRequest
		var entryDate, created string
		var resolved sql.NullString
		if err := rows.Scan(&req.ID, &req.ShopID, &entryDate, &req.Type, &req.RequestedBy,
			&req.Status, &created, &resolved); err != nil {
			return nil, err
		}
		req.EntryDate = parseDay(entryDate)
		req.CreatedAt = parseTime(created)
		req.ResolvedAt = parseTimePtr(resolved)
		out = append(out, req)
	}
	return out, rows.Err()
}

// =============================================================================
// ARCHIVE INDEX
// =============================================================================

func (s *Store) AppendPDFArchive(ctx context.Context, rec ledger.PDFArchive) error {
	if rec.ID == "" {
		rec.ID = newID("pdf")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pdf_archives (id, shop_id, entry_date, file_name, month_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ShopID, rec.EntryDate.String(), rec.FileName, rec.MonthYear, fmtTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("append pdf archive: %w", err)
	}
	return nil
}
