/*
stock.go - Stock movement calculator

PURPOSE:
  Pure derivation of sale quantity and value from a stock line's raw
  movement fields. Total function: every input combination produces a
  result, including negative sold quantities.

FORMULAS (fixed; no rounding beyond currency precision):
  sold_qty            = opening + purchases - transfer - closing
  sale_value          = sold_qty * mrp
  closing_stock_value = closing * mrp

NEGATIVE SOLD QTY:
  Counting more bottles at close than the day's movement explains makes
  sold_qty negative. That is valid output - it signals an overcount or
  data-entry error and is surfaced to humans, never clamped.

SEE ALSO:
  - reconcile.go: Consumes SaleValue into the day's cash totals
  - rollover.go:  Sets OpeningStock; the only writer of that field
*/
package ledger

import "github.com/shopspring/decimal"

// StockField names the single raw field being edited. OpeningStock is
// absent on purpose: only rollover writes it.
type StockField string

const (
	FieldPurchases    StockField = "purchases"
	FieldTransfer     StockField = "transfer"
	FieldClosingStock StockField = "closing_stock"
)

// RecomputeStockLine fills the line's derived fields from its raw
// fields and the product's MRP. Pure; the caller persists.
func RecomputeStockLine(line *StockLine, mrp decimal.Decimal) {
	line.SoldQty = line.OpeningStock + line.Purchases - line.Transfer - line.ClosingStock
	line.SaleValue = decimal.NewFromInt(int64(line.SoldQty)).Mul(mrp)
	line.ClosingStockValue = decimal.NewFromInt(int64(line.ClosingStock)).Mul(mrp)
}

// ApplyStockEdit sets one raw field to its new value and recomputes the
// derived fields. Unknown fields are ignored (derived fields are not
// directly editable).
func ApplyStockEdit(line *StockLine, field StockField, value int, mrp decimal.Decimal) {
	switch field {
	case FieldPurchases:
		line.Purchases = value
	case FieldTransfer:
		line.Transfer = value
	case FieldClosingStock:
		line.ClosingStock = value
	}
	RecomputeStockLine(line, mrp)
}
