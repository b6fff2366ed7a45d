// Package arith provides the money and quantity arithmetic for invoice lines
// and document totals. All functions are pure and stateless.
//
// Fixed policy: results are rounded to 2 decimal places (half-up), percentages
// are 0-100 inclusive, and negative derived values are clamped to zero rather
// than rejected.
package arith

import (
	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// Round applies the fixed 2-decimal rounding policy (half-up).
func Round(m types.Money) types.Money {
	return m.Round(2)
}

// Clamp returns m, or zero when m is negative.
func Clamp(m types.Money) types.Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// ToInclusive converts a tax-exclusive price to tax-inclusive.
// inclusive = exclusive * (1 + rate/100).
func ToInclusive(exclusive types.Money, taxRate types.Percent) types.Money {
	return exclusive.Mul(hundred.Add(taxRate)).Div(hundred)
}

// ToExclusive converts a tax-inclusive price back to tax-exclusive.
// exclusive = inclusive / (1 + rate/100). A zero tax rate is the identity.
func ToExclusive(inclusive types.Money, taxRate types.Percent) types.Money {
	if taxRate.IsZero() {
		return inclusive
	}
	return inclusive.Mul(hundred).Div(hundred.Add(taxRate))
}

// ApplyCascadingDiscounts applies two percentage discounts in a fixed order:
// discount 1 first, then discount 2 on the already-discounted price. Each
// stage is rounded to 2 decimals, so swapping the order changes the result in
// general and is not allowed. The result is clamped at zero.
func ApplyCascadingDiscounts(price types.Money, pct1, pct2 types.Percent) types.Money {
	stage1 := Round(price.Mul(hundred.Sub(pct1)).Div(hundred))
	stage2 := Round(stage1.Mul(hundred.Sub(pct2)).Div(hundred))
	return Clamp(stage2)
}

// LineInput carries the stored fields of one invoice line.
type LineInput struct {
	Quantity types.Quantity
	// UnitPrice is tax-exclusive and undiscounted
	UnitPrice types.Money
	TaxRate   types.Percent
	Discount1 types.Percent
	Discount2 types.Percent
}

// LineTotals carries the derived per-line values, rounded to 2 decimals.
// They are persisted for audit but the stored fields remain the truth.
type LineTotals struct {
	// UnitExclusive is the discounted tax-exclusive unit price
	UnitExclusive types.Money
	// UnitInclusive is the discounted tax-inclusive unit price
	UnitInclusive types.Money
	// ExclusiveTotal = UnitExclusive * Quantity
	ExclusiveTotal types.Money
	// InclusiveTotal = UnitInclusive * Quantity
	InclusiveTotal types.Money
	// Tax = InclusiveTotal - ExclusiveTotal
	Tax types.Money
}

// ComputeLine derives all per-line values from the stored fields.
// Discounts cascade on the tax-inclusive price, then the exclusive price is
// recovered by dividing the tax back out.
func ComputeLine(in LineInput) LineTotals {
	inclusive := ToInclusive(in.UnitPrice, in.TaxRate)
	discountedIncl := ApplyCascadingDiscounts(inclusive, in.Discount1, in.Discount2)
	discountedExcl := ToExclusive(discountedIncl, in.TaxRate)

	inclTotal := Round(discountedIncl.Mul(in.Quantity))
	exclTotal := Round(discountedExcl.Mul(in.Quantity))

	return LineTotals{
		UnitExclusive:  Round(discountedExcl),
		UnitInclusive:  Round(discountedIncl),
		ExclusiveTotal: exclTotal,
		InclusiveTotal: inclTotal,
		Tax:            inclTotal.Sub(exclTotal),
	}
}

// DiscountKind selects how a document-level discount value is interpreted.
type DiscountKind string

const (
	DiscountNone    DiscountKind = "none"
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// Valid reports whether k is a known discount kind.
func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountNone, DiscountPercent, DiscountAmount:
		return true
	}
	return false
}

// DocumentDiscount computes the document-level discount amount on the sum of
// line exclusive totals. The amount is subtracted from both the exclusive and
// inclusive document totals equally (off-the-top, not re-taxed), and is
// clamped to [0, sumExclusive].
func DocumentDiscount(sumExclusive types.Money, kind DiscountKind, value decimal.Decimal) types.Money {
	var discount types.Money
	switch kind {
	case DiscountPercent:
		discount = Round(sumExclusive.Mul(value).Div(hundred))
	case DiscountAmount:
		discount = Round(value)
	default:
		return decimal.Zero
	}
	discount = Clamp(discount)
	if discount.GreaterThan(sumExclusive) {
		return sumExclusive
	}
	return discount
}
