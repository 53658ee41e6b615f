// Package billing owns the line-item ledger shared by estimates and
// invoices: the line-item types and the subtotal/tax/total derivation.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fieldbill/fieldbill/internal/shared"
)

// ItemType classifies a billable entry.
type ItemType string

const (
	ItemTypeLabor    ItemType = "labor"
	ItemTypeMaterial ItemType = "material"
	ItemTypeOther    ItemType = "other"
)

// LineItem is one billable entry belonging to exactly one document.
type LineItem struct {
	ID          int64    `json:"id"`
	ItemType    ItemType `json:"itemType"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	Total       float64  `json:"total"`
	SortOrder   int      `json:"sortOrder"`
}

// LineItemInput is the caller-supplied shape used on create and replace.
// The line total is taken verbatim; the ledger does not recompute it
// from quantity and unit price.
type LineItemInput struct {
	ItemType    ItemType `json:"itemType" validate:"required,oneof=labor material other"`
	Description string   `json:"description" validate:"required"`
	Quantity    float64  `json:"quantity" validate:"gte=0"`
	UnitPrice   float64  `json:"unitPrice" validate:"gte=0"`
	Total       float64  `json:"total"`
	SortOrder   int      `json:"sortOrder" validate:"gte=0"`
}

// Totals is the three-number derivation stored on every document.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals derives subtotal, tax amount and total for a non-empty
// line-item set. Amounts are computed in fixed-point decimal and rounded
// to two places, so Total == Subtotal + TaxAmount holds exactly.
func ComputeTotals(items []LineItemInput, taxRate float64) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("%w: at least one line item is required", shared.ErrValidation)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}
	subtotal = subtotal.Round(2)

	rate := decimal.NewFromFloat(taxRate)
	taxAmount := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(taxAmount)

	return Totals{
		Subtotal:  subtotal.InexactFloat64(),
		TaxAmount: taxAmount.InexactFloat64(),
		Total:     total.InexactFloat64(),
	}, nil
}

// ItemsFromInputs materializes stored line items from caller input,
// assigning sort order from array position when not supplied.
func ItemsFromInputs(inputs []LineItemInput) []LineItem {
	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		item := LineItem{
			ItemType:    in.ItemType,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       in.Total,
			SortOrder:   in.SortOrder,
		}
		if item.SortOrder == 0 {
			item.SortOrder = i
		}
		items = append(items, item)
	}
	return items
}
