package arith

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onmuhasebe/internal/core/types"
)

func dec(s string) decimal.Decimal {
	return types.MustMoney(s)
}

func TestToInclusive(t *testing.T) {
	tests := []struct {
		name      string
		exclusive string
		taxRate   string
		want      string
	}{
		{"standard vat", "100", "18", "118"},
		{"reduced vat", "100", "8", "108"},
		{"zero rate", "100", "0", "100"},
		{"fractional price", "12.50", "20", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToInclusive(dec(tt.exclusive), dec(tt.taxRate))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestToExclusive(t *testing.T) {
	// Round-trip: ToExclusive(ToInclusive(p, r), r) == p
	for _, rate := range []string{"0", "1", "8", "18", "20"} {
		price := dec("149.99")
		incl := ToInclusive(price, dec(rate))
		back := ToExclusive(incl, dec(rate))
		assert.True(t, price.Equal(back.Round(10)), "rate %s: got %s", rate, back)
	}
}

func TestToExclusive_ZeroRateIsIdentity(t *testing.T) {
	p := dec("42.42")
	assert.True(t, p.Equal(ToExclusive(p, decimal.Zero)))
}

func TestApplyCascadingDiscounts_Order(t *testing.T) {
	p := dec("100")

	// 10% then 20%: 100 * 0.9 * 0.8 = 72
	got := ApplyCascadingDiscounts(p, dec("10"), dec("20"))
	assert.True(t, dec("72").Equal(got), "got %s", got)

	// Per-stage rounding makes the order observable:
	// 33.33 -10% -> 30.00 -20% -> 24.00
	// 33.33 -20% -> 26.66 -10% -> 23.99
	a := ApplyCascadingDiscounts(dec("33.33"), dec("10"), dec("20"))
	b := ApplyCascadingDiscounts(dec("33.33"), dec("20"), dec("10"))
	assert.True(t, dec("24.00").Equal(a), "got %s", a)
	assert.True(t, dec("23.99").Equal(b), "got %s", b)
	assert.False(t, a.Equal(b), "discount 1 must be applied before discount 2")
}

func TestApplyCascadingDiscounts_Clamp(t *testing.T) {
	got := ApplyCascadingDiscounts(dec("100"), dec("100"), dec("50"))
	assert.True(t, got.IsZero())
}

func TestComputeLine_NoDiscounts(t *testing.T) {
	totals := ComputeLine(LineInput{
		Quantity:  dec("2"),
		UnitPrice: dec("100"),
		TaxRate:   dec("18"),
	})

	assert.True(t, dec("100").Equal(totals.UnitExclusive))
	assert.True(t, dec("118").Equal(totals.UnitInclusive))
	assert.True(t, dec("200").Equal(totals.ExclusiveTotal))
	assert.True(t, dec("236").Equal(totals.InclusiveTotal))
	assert.True(t, dec("36").Equal(totals.Tax))
}

func TestComputeLine_CascadingDiscounts(t *testing.T) {
	totals := ComputeLine(LineInput{
		Quantity:  dec("1"),
		UnitPrice: dec("100"),
		TaxRate:   dec("20"),
		Discount1: dec("10"),
		Discount2: dec("20"),
	})

	// inclusive 120 -> *0.9 -> 108 -> *0.8 -> 86.40; exclusive 72
	assert.True(t, dec("86.40").Equal(totals.UnitInclusive), "got %s", totals.UnitInclusive)
	assert.True(t, dec("72").Equal(totals.UnitExclusive), "got %s", totals.UnitExclusive)
	assert.True(t, dec("14.40").Equal(totals.Tax), "got %s", totals.Tax)
}

func TestComputeLine_TaxIsDifferenceOfRoundedTotals(t *testing.T) {
	totals := ComputeLine(LineInput{
		Quantity:  dec("3"),
		UnitPrice: dec("9.99"),
		TaxRate:   dec("18"),
		Discount1: dec("5"),
	})

	require.True(t, totals.Tax.Equal(totals.InclusiveTotal.Sub(totals.ExclusiveTotal)))
}

func TestDocumentDiscount(t *testing.T) {
	sum := dec("400")

	assert.True(t, dec("40").Equal(DocumentDiscount(sum, DiscountPercent, dec("10"))))
	assert.True(t, dec("25").Equal(DocumentDiscount(sum, DiscountAmount, dec("25"))))
	assert.True(t, DocumentDiscount(sum, DiscountNone, dec("25")).IsZero())

	// clamped to the exclusive sum
	assert.True(t, sum.Equal(DocumentDiscount(sum, DiscountAmount, dec("999"))))
	// negative values clamp to zero
	assert.True(t, DocumentDiscount(sum, DiscountAmount, dec("-5")).IsZero())
}

func TestDiscountKindValid(t *testing.T) {
	assert.True(t, DiscountNone.Valid())
	assert.True(t, DiscountPercent.Valid())
	assert.True(t, DiscountAmount.Valid())
	assert.False(t, DiscountKind("half-off").Valid())
}
