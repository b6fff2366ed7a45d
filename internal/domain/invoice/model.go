// Package invoice provides the invoice aggregate and the posting
// orchestrator that turns invoice operations into atomic ledger writes.
package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/arith"
)

// Type is the closed set of invoice types. Every consumer of the posting
// direction table matches it exhaustively.
type Type string

const (
	TypeSale           Type = "sale"
	TypePurchase       Type = "purchase"
	TypeSaleReturn     Type = "sale_return"
	TypePurchaseReturn Type = "purchase_return"
	TypeOpeningBalance Type = "opening_balance"
)

// Valid reports whether t is a known invoice type.
func (t Type) Valid() bool {
	switch t {
	case TypeSale, TypePurchase, TypeSaleReturn, TypePurchaseReturn, TypeOpeningBalance:
		return true
	}
	return false
}

// NumberPrefix returns the document-number prefix for this type.
func (t Type) NumberPrefix() string {
	switch t {
	case TypeSale:
		return "SAT"
	case TypePurchase:
		return "ALS"
	case TypeSaleReturn:
		return "SIA"
	case TypePurchaseReturn:
		return "AIA"
	case TypeOpeningBalance:
		return "ACL"
	}
	return "FAT"
}

// IsReturn reports whether this is a return invoice.
func (t Type) IsReturn() bool {
	return t == TypeSaleReturn || t == TypePurchaseReturn
}

// PaymentMethod is the closed set of payment methods.
type PaymentMethod string

const (
	PaymentCash           PaymentMethod = "cash"
	PaymentCard           PaymentMethod = "card"
	PaymentWire           PaymentMethod = "wire"
	PaymentCheck          PaymentMethod = "check"
	PaymentPromissoryNote PaymentMethod = "promissory_note"
	PaymentOpenAccount    PaymentMethod = "open_account"
	PaymentIneffective    PaymentMethod = "ineffective"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentWire, PaymentCheck,
		PaymentPromissoryNote, PaymentOpenAccount, PaymentIneffective:
		return true
	}
	return false
}

// ImpliesCashMovement reports whether this method creates an immediate cash
// movement on posting. OpenAccount and Ineffective do not; they also do not
// require a cash account on the invoice.
func (m PaymentMethod) ImpliesCashMovement() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentWire, PaymentCheck, PaymentPromissoryNote:
		return true
	}
	return false
}

// Line is one invoice line. Quantity, UnitPrice, TaxRate and the two
// discount percentages are the stored truth; the remaining money fields are
// derived via arith and persisted for audit.
type Line struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// UnitPrice is tax-exclusive and undiscounted
	UnitPrice types.Money   `db:"unit_price" json:"unitPrice"`
	TaxRate   types.Percent `db:"tax_rate" json:"taxRate"`
	Discount1 types.Percent `db:"discount1" json:"discount1"`
	Discount2 types.Percent `db:"discount2" json:"discount2"`

	// CostPrice is a snapshot of the product's cost at transaction time,
	// kept for margin reporting
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// Derived, persisted for audit
	UnitExclusive  types.Money `db:"unit_exclusive" json:"unitExclusive"`
	UnitInclusive  types.Money `db:"unit_inclusive" json:"unitInclusive"`
	ExclusiveTotal types.Money `db:"exclusive_total" json:"exclusiveTotal"`
	InclusiveTotal types.Money `db:"inclusive_total" json:"inclusiveTotal"`
	Tax            types.Money `db:"tax" json:"tax"`
}

// Invoice is a sales or purchase document (or its return / opening-balance
// variant) with one or more lines. It is created, fully replaced, or deleted
// as a unit; lines are never partially mutated.
type Invoice struct {
	entity.Document

	Type Type `db:"type" json:"type"`

	PartyID       *id.ID        `db:"party_id" json:"partyId,omitempty"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	CashAccountID *id.ID        `db:"cash_account_id" json:"cashAccountId,omitempty"`
	DueDate       *time.Time    `db:"due_date" json:"dueDate,omitempty"`

	// Document-level discount, applied to the sum of line exclusive totals
	DiscountKind  arith.DiscountKind `db:"discount_kind" json:"discountKind"`
	DiscountValue decimal.Decimal    `db:"discount_value" json:"discountValue"`

	// OriginalInvoiceID links a return to the invoice being returned
	OriginalInvoiceID *id.ID `db:"original_invoice_id" json:"originalInvoiceId,omitempty"`

	// Derived document totals, persisted for audit
	TotalExclusive  types.Money `db:"total_exclusive" json:"totalExclusive"`
	TotalInclusive  types.Money `db:"total_inclusive" json:"totalInclusive"`
	TotalTax        types.Money `db:"total_tax" json:"totalTax"`
	AppliedDiscount types.Money `db:"applied_discount" json:"appliedDiscount"`

	Lines []Line `db:"-" json:"lines"`
}

// SourceRef returns the tuple stamped on every ledger row this invoice
// creates. It is the sole handle used to locate and reverse those rows.
func (inv *Invoice) SourceRef() entity.SourceRef {
	if inv.Type.IsReturn() {
		return entity.SourceRef{SourceKind: entity.SourceInvoiceReturn, SourceID: inv.ID}
	}
	return entity.InvoiceSource(inv.ID)
}

// Totals carries the document totals computed by ComputeTotals.
type Totals struct {
	Exclusive       types.Money `json:"exclusive"`
	Inclusive       types.Money `json:"inclusive"`
	Tax             types.Money `json:"tax"`
	AppliedDiscount types.Money `json:"appliedDiscount"`
}

// ComputeTotals derives every per-line value and the document totals, and
// stores them on the invoice. The document discount is computed on the sum
// of line exclusive totals and subtracted from the exclusive and inclusive
// totals equally (off-the-top, not re-taxed).
func (inv *Invoice) ComputeTotals() Totals {
	sumExcl := types.Zero()
	sumIncl := types.Zero()

	for i := range inv.Lines {
		line := &inv.Lines[i]
		t := arith.ComputeLine(arith.LineInput{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			TaxRate:   line.TaxRate,
			Discount1: line.Discount1,
			Discount2: line.Discount2,
		})
		line.UnitExclusive = t.UnitExclusive
		line.UnitInclusive = t.UnitInclusive
		line.ExclusiveTotal = t.ExclusiveTotal
		line.InclusiveTotal = t.InclusiveTotal
		line.Tax = t.Tax

		sumExcl = sumExcl.Add(t.ExclusiveTotal)
		sumIncl = sumIncl.Add(t.InclusiveTotal)
	}

	discount := arith.DocumentDiscount(sumExcl, inv.DiscountKind, inv.DiscountValue)

	inv.TotalExclusive = sumExcl.Sub(discount)
	inv.TotalInclusive = arith.Clamp(sumIncl.Sub(discount))
	inv.TotalTax = sumIncl.Sub(sumExcl)
	inv.AppliedDiscount = discount

	return Totals{
		Exclusive:       inv.TotalExclusive,
		Inclusive:       inv.TotalInclusive,
		Tax:             inv.TotalTax,
		AppliedDiscount: discount,
	}
}

// Validate checks the structural invariants. It runs before any ledger
// write; a violation here means nothing has been applied.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}

	if !inv.Type.Valid() {
		return apperror.NewValidation("invalid invoice type").
			WithDetail("field", "type").
			WithDetail("value", string(inv.Type))
	}
	if !inv.PaymentMethod.Valid() {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(inv.PaymentMethod))
	}
	if !inv.DiscountKind.Valid() {
		return apperror.NewValidation("invalid discount kind").
			WithDetail("field", "discountKind")
	}
	if inv.DiscountValue.IsNegative() {
		return apperror.NewValidation("discount value must not be negative").
			WithDetail("field", "discountValue")
	}

	if len(inv.Lines) == 0 {
		return apperror.NewValidation("invoice requires at least one line").
			WithDetail("field", "lines")
	}
	for i := range inv.Lines {
		if err := inv.Lines[i].validate(i); err != nil {
			return err
		}
	}

	switch inv.Type {
	case TypeSale, TypePurchase, TypeOpeningBalance:
		if inv.PartyID == nil {
			return apperror.NewValidation("party is required for this invoice type").
				WithDetail("field", "partyId").
				WithDetail("type", string(inv.Type))
		}
	}

	if inv.PaymentMethod.ImpliesCashMovement() && inv.Type != TypeOpeningBalance && inv.CashAccountID == nil {
		return apperror.NewValidation("cash account is required for this payment method").
			WithDetail("field", "cashAccountId").
			WithDetail("paymentMethod", string(inv.PaymentMethod))
	}
	if inv.PaymentMethod == PaymentOpenAccount && inv.DueDate == nil {
		return apperror.NewValidation("due date is required for open account").
			WithDetail("field", "dueDate")
	}

	return nil
}

func (l *Line) validate(idx int) error {
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("line product is required").
			WithDetail("line", idx)
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("line quantity must be positive").
			WithDetail("line", idx)
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("line unit price must not be negative").
			WithDetail("line", idx)
	}
	if !types.ValidPercent(l.TaxRate) {
		return apperror.NewValidation("line tax rate must be between 0 and 100").
			WithDetail("line", idx)
	}
	if !types.ValidPercent(l.Discount1) || !types.ValidPercent(l.Discount2) {
		return apperror.NewValidation("line discounts must be between 0 and 100").
			WithDetail("line", idx)
	}
	return nil
}
