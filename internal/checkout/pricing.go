package checkout

import (
	"github.com/shopspring/decimal"
)

// Quote is the priced breakdown of a cart, all amounts in integer cents.
type Quote struct {
	SubtotalCents int
	DiscountCents int
	TaxCents      int
	ShippingCents int
	TotalCents    int
}

var oneHundred = decimal.NewFromInt(100)

// computeQuote prices a cart. The discount is a whole percentage of the item
// subtotal, clamped so it never exceeds subtotal plus shipping; tax applies to
// the discounted item subtotal only, never to shipping.
func computeQuote(subtotalCents, promoPercent, taxRateBasisPoints, shippingCents int) Quote {
	subtotal := decimal.NewFromInt(int64(subtotalCents))
	shipping := decimal.NewFromInt(int64(shippingCents))

	discount := decimal.Zero
	if promoPercent > 0 {
		discount = subtotal.
			Mul(decimal.NewFromInt(int64(promoPercent))).
			Div(oneHundred).
			Round(0)
	}
	if limit := subtotal.Add(shipping); discount.GreaterThan(limit) {
		discount = limit
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.
		Mul(decimal.NewFromInt(int64(taxRateBasisPoints))).
		Div(decimal.NewFromInt(10000)).
		Round(0)

	total := subtotal.Sub(discount).Add(tax).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		SubtotalCents: subtotalCents,
		DiscountCents: int(discount.IntPart()),
		TaxCents:      int(tax.IntPart()),
		ShippingCents: shippingCents,
		TotalCents:    int(total.IntPart()),
	}
}
