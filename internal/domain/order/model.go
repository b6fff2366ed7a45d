// Package order provides sales and purchase orders. Orders carry pricing
// but never post to any ledger; their only ledger effect is through
// conversion into an invoice.
package order

import (
	"context"
	"time"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/arith"
)

// Kind selects the order side and the invoice type it converts to.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// Valid reports whether k is a known order kind.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindPurchase
}

// Line is one order line. Same pricing shape as an invoice line; the
// derived totals are computed for display only.
type Line struct {
	LineID  id.ID `db:"line_id" json:"lineId"`
	OrderID id.ID `db:"order_id" json:"orderId"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	TaxRate   types.Percent  `db:"tax_rate" json:"taxRate"`
	Discount1 types.Percent  `db:"discount1" json:"discount1"`
	Discount2 types.Percent  `db:"discount2" json:"discount2"`

	InclusiveTotal types.Money `db:"inclusive_total" json:"inclusiveTotal"`
}

// Order is a sales or purchase order.
type Order struct {
	entity.Document

	Kind    Kind  `db:"kind" json:"kind"`
	PartyID id.ID `db:"party_id" json:"partyId"`

	// Invoiced is set once the order has been converted; InvoiceID
	// back-references the resulting invoice
	Invoiced  bool   `db:"invoiced" json:"invoiced"`
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`

	// DeliveryDate is the requested delivery date
	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	TotalInclusive types.Money `db:"total_inclusive" json:"totalInclusive"`

	Lines []Line `db:"-" json:"lines"`
}

// ComputeTotals derives the per-line and document totals for display.
func (o *Order) ComputeTotals() {
	total := types.Zero()
	for i := range o.Lines {
		line := &o.Lines[i]
		t := arith.ComputeLine(arith.LineInput{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			TaxRate:   line.TaxRate,
			Discount1: line.Discount1,
			Discount2: line.Discount2,
		})
		line.InclusiveTotal = t.InclusiveTotal
		total = total.Add(t.InclusiveTotal)
	}
	o.TotalInclusive = total
}

// Validate implements entity.Validatable interface.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if !o.Kind.Valid() {
		return apperror.NewValidation("invalid order kind").
			WithDetail("field", "kind").
			WithDetail("value", string(o.Kind))
	}
	if id.IsNil(o.PartyID) {
		return apperror.NewValidation("party is required").
			WithDetail("field", "partyId")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("order requires at least one line").
			WithDetail("field", "lines")
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("line product is required").
				WithDetail("line", i)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i)
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("line unit price must not be negative").
				WithDetail("line", i)
		}
		if !types.ValidPercent(l.TaxRate) {
			return apperror.NewValidation("line tax rate must be between 0 and 100").
				WithDetail("line", i)
		}
		if !types.ValidPercent(l.Discount1) || !types.ValidPercent(l.Discount2) {
			return apperror.NewValidation("line discounts must be between 0 and 100").
				WithDetail("line", i)
		}
	}

	return nil
}
