/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as decimal strings ("1234.50"), never floats. The
  decimal type marshals as a quoted string and accepts both quoted and
  bare numbers on the way in.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/daybook/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ShopDTO represents an outlet in API responses.
type ShopDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateShopRequest is the request to register an outlet.
type CreateShopRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductDTO represents a catalog item in API responses.
type ProductDTO struct {
	ID        string          `json:"id"`
	ShopID    string          `json:"shop_id"`
	BrandName string          `json:"brand_name"`
	SizeML    int             `json:"size_ml"`
	MRP       decimal.Decimal `json:"mrp"`
	IsActive  bool            `json:"is_active"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// CreateProductRequest is the request to add a catalog item.
type CreateProductRequest struct {
	ID        string          `json:"id"`
	BrandName string          `json:"brand_name"`
	SizeML    int             `json:"size_ml"`
	MRP       decimal.Decimal `json:"mrp"`
	IsActive  *bool           `json:"is_active,omitempty"`
}

// StockLineDTO represents one product's daily stock row.
type StockLineDTO struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	OpeningStock      int             `json:"opening_stock"`
	Purchases         int             `json:"purchases"`
	Transfer          int             `json:"transfer"`
	ClosingStock      int             `json:"closing_stock"`
	SoldQty           int             `json:"sold_qty"`
	SaleValue         decimal.Decimal `json:"sale_value"`
	ClosingStockValue decimal.Decimal `json:"closing_stock_value"`
}

// StockLineInputDTO carries the staff-editable stock fields.
type StockLineInputDTO struct {
	ProductID    string `json:"product_id"`
	Purchases    int    `json:"purchases"`
	Transfer     int    `json:"transfer"`
	ClosingStock int    `json:"closing_stock"`
}

// NoteCountDTO is one denomination row of the cash count.
type NoteCountDTO struct {
	Face  int64 `json:"face"`
	Count int   `json:"count"`
}

// DigitalPaymentDTO is one digital channel total.
type DigitalPaymentDTO struct {
	Channel string          `json:"channel"`
	Amount  decimal.Decimal `json:"amount"`
}

// ExtraTransactionDTO is one incidental income/expense row.
type ExtraTransactionDTO struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreditEntryDTO is one credit sale row.
type CreditEntryDTO struct {
	PersonName string          `json:"person_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// CashLedgerDTO represents the shop-day register row.
type CashLedgerDTO struct {
	ID               string              `json:"id"`
	ShopID           string              `json:"shop_id"`
	EntryDate        string              `json:"entry_date"`
	CounterOpening   decimal.Decimal     `json:"counter_opening"`
	Notes            []NoteCountDTO      `json:"notes"`
	Coins            decimal.Decimal     `json:"coins"`
	Digital          []DigitalPaymentDTO `json:"digital"`
	BankDeposit      decimal.Decimal     `json:"bank_deposit"`
	CashToHouse      decimal.Decimal     `json:"cash_to_house"`
	TotalSaleValue   decimal.Decimal     `json:"total_sale_value"`
	PhysicalCash     decimal.Decimal     `json:"physical_cash"`
	TotalDigital     decimal.Decimal     `json:"total_digital"`
	TotalBottlesSold int                 `json:"total_bottles_sold"`
	CounterClosing   decimal.Decimal     `json:"counter_closing"`
	CashDifference   decimal.Decimal     `json:"cash_difference"`
	CashStatus       string              `json:"cash_status"`
	State            string              `json:"state"`
	Locked           bool                `json:"is_locked"`
	Approved         bool                `json:"is_approved"`
	UnlockRequested  bool                `json:"unlock_requested"`
	LockedAt         *string             `json:"locked_at,omitempty"`
	ApprovedAt       *string             `json:"approved_at,omitempty"`
}

// ReconciliationDTO is the derived-field summary for a shop-day.
type ReconciliationDTO struct {
	TotalSaleValue      decimal.Decimal `json:"total_sale_value"`
	TotalBottlesSold    int             `json:"total_bottles_sold"`
	PhysicalCash        decimal.Decimal `json:"physical_cash"`
	TotalDigital        decimal.Decimal `json:"total_digital"`
	TotalExtraIncome    decimal.Decimal `json:"total_extra_income"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	TotalCredit         decimal.Decimal `json:"total_credit"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	CounterClosing      decimal.Decimal `json:"counter_closing"`
	CashAfterDeductions decimal.Decimal `json:"cash_after_deductions"`
	CashStatusValue     decimal.Decimal `json:"cash_status_value"`
	CashDifference      decimal.Decimal `json:"cash_difference"`
	Status              string          `json:"status"`
	StatusAmount        decimal.Decimal `json:"status_amount"`
}

// DayViewDTO is the full shop-day payload.
type DayViewDTO struct {
	Cash            CashLedgerDTO         `json:"cash"`
	Lines           []StockLineDTO        `json:"lines"`
	Extras          []ExtraTransactionDTO `json:"extras"`
	Credits         []CreditEntryDTO      `json:"credits"`
	Reconciliation  ReconciliationDTO     `json:"reconciliation"`
	RolloverApplied bool                  `json:"rollover_applied"`
}

// SaveDayRequest is the full editable surface of a shop-day.
type SaveDayRequest struct {
	Lines       []StockLineInputDTO   `json:"lines"`
	Notes       []NoteCountDTO        `json:"notes"`
	Coins       decimal.Decimal       `json:"coins"`
	Digital     []DigitalPaymentDTO   `json:"digital"`
	BankDeposit decimal.Decimal       `json:"bank_deposit"`
	CashToHouse decimal.Decimal       `json:"cash_to_house"`
	Extras      []ExtraTransactionDTO `json:"extras"`
	Credits     []CreditEntryDTO      `json:"credits"`
}

// ApprovalRequestDTO represents a lock/unlock workflow record.
type ApprovalRequestDTO struct {
	ID          string  `json:"id"`
	ShopID      string  `json:"shop_id"`
	EntryDate   string  `json:"entry_date"`
	Type        string  `json:"type"`
	RequestedBy string  `json:"requested_by"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	ResolvedAt  *string `json:"resolved_at,omitempty"`
}

// DebtorDTO represents a credit customer.
type DebtorDTO struct {
	ID         string `json:"id"`
	PersonName string `json:"person_name"`
}

// ArchivePDFRequest indexes a generated report.
type ArchivePDFRequest struct {
	FileName string `json:"file_name"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toShopDTO(s ledger.Shop) ShopDTO {
	return ShopDTO{
		ID:        string(s.ID),
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func toProductDTO(p ledger.Product) ProductDTO {
	return ProductDTO{
		ID:        string(p.ID),
		ShopID:    string(p.ShopID),
		BrandName: p.BrandName,
		SizeML:    p.SizeML,
		MRP:       p.MRP,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toStockLineDTO(l ledger.StockLine) StockLineDTO {
	return StockLineDTO{
		ID:                l.ID,
		ProductID:         string(l.ProductID),
		OpeningStock:      l.OpeningStock,
		Purchases:         l.Purchases,
		Transfer:          l.Transfer,
		ClosingStock:      l.ClosingStock,
		SoldQty:           l.SoldQty,
		SaleValue:         l.SaleValue,
		ClosingStockValue: l.ClosingStockValue,
	}
}

func toCashLedgerDTO(c *ledger.CashLedger) CashLedgerDTO {
	notes := make([]NoteCountDTO, len(c.Notes))
	for i, n := range c.Notes {
		notes[i] = NoteCountDTO{Face: n.Face, Count: n.Count}
	}
	digital := make([]DigitalPaymentDTO, len(c.Digital))
	for i, d := range c.Digital {
		digital[i] = DigitalPaymentDTO{Channel: d.Channel, Amount: d.Amount}
	}
	return CashLedgerDTO{
		ID:               c.ID,
		ShopID:           string(c.ShopID),
		EntryDate:        c.EntryDate.String(),
		CounterOpening:   c.CounterOpening,
		Notes:            notes,
		Coins:            c.Coins,
		Digital:          digital,
		BankDeposit:      c.BankDeposit,
		CashToHouse:      c.CashToHouse,
		TotalSaleValue:   c.TotalSaleValue,
		PhysicalCash:     c.PhysicalCash,
		TotalDigital:     c.TotalDigital,
		TotalBottlesSold: c.TotalBottlesSold,
		CounterClosing:   c.CounterClosing,
		CashDifference:   c.CashDifference,
		CashStatus:       string(c.CashStatus),
		State:            string(c.State()),
		Locked:           c.Locked,
		Approved:         c.Approved,
		UnlockRequested:  c.UnlockRequested,
		LockedAt:         fmtTimePtr(c.LockedAt),
		ApprovedAt:       fmtTimePtr(c.ApprovedAt),
	}
}

func toReconciliationDTO(r ledger.ReconciliationResult) ReconciliationDTO {
	return ReconciliationDTO{
		TotalSaleValue:      r.TotalSaleValue,
		TotalBottlesSold:    r.TotalBottlesSold,
		PhysicalCash:        r.PhysicalCash,
		TotalDigital:        r.TotalDigital,
		TotalExtraIncome:    r.TotalExtraIncome,
		TotalExpenses:       r.TotalExpenses,
		TotalCredit:         r.TotalCredit,
		TotalAmount:         r.TotalAmount,
		CounterClosing:      r.CounterClosing,
		CashAfterDeductions: r.CashAfterDeductions,
		CashStatusValue:     r.CashStatusValue,
		CashDifference:      r.CashDifference,
		Status:              string(r.Status),
		StatusAmount:        r.StatusAmount,
	}
}

func toDayViewDTO(v *ledger.DayView) DayViewDTO {
	lines := make([]StockLineDTO, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = toStockLineDTO(l)
	}
	extras := make([]ExtraTransactionDTO, len(v.Extras))
	for i, t := range v.Extras {
		extras[i] = ExtraTransactionDTO{
			Type:        string(t.Type),
			Description: t.Description,
			Amount:      t.Amount,
		}
	}
	credits := make([]CreditEntryDTO, len(v.Credits))
	for i, c := range v.Credits {
		credits[i] = CreditEntryDTO{PersonName: c.PersonName, Amount: c.Amount}
	}
	return DayViewDTO{
		Cash:            toCashLedgerDTO(v.Cash),
		Lines:           lines,
		Extras:          extras,
		Credits:         credits,
		Reconciliation:  toReconciliationDTO(v.Result),
		RolloverApplied: v.RolloverApplied,
	}
}

func toApprovalRequestDTO(r ledger.ApprovalRequest) ApprovalRequestDTO {
	return ApprovalRequestDTO{
		ID:          r.ID,
		ShopID:      string(r.ShopID),
		EntryDate:   r.EntryDate.String(),
		Type:        string(r.Type),
		RequestedBy: r.RequestedBy,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		ResolvedAt:  fmtTimePtr(r.ResolvedAt),
	}
}
