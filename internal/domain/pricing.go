package domain

import (
	"math/rand/v2"
)

// Subtotal is the sum of all charge components before discounts.
func (p Pricing) Subtotal() float64 {
	return p.Base + p.Taxes + p.Fees + p.AddOns
}

// NewPricing builds a price breakdown with the computed total. The
// total is Subtotal - Discounts and must not be negative.
func NewPricing(base, taxes, fees, addOns, discounts float64, currency string) (Pricing, error) {
	p := Pricing{
		Base:      base,
		Taxes:     taxes,
		Fees:      fees,
		AddOns:    addOns,
		Discounts: discounts,
		Currency:  currency,
	}
	for _, c := range []struct {
		field string
		value float64
	}{
		{"base", base}, {"taxes", taxes}, {"fees", fees},
		{"addOns", addOns}, {"discounts", discounts},
	} {
		if c.value < 0 {
			return Pricing{}, &ValidationError{Field: c.field, Reason: "must not be negative"}
		}
	}
	p.Total = p.Subtotal() - p.Discounts
	if p.Total < 0 {
		return Pricing{}, &ValidationError{Field: "discounts", Reason: "exceed the subtotal"}
	}
	return p, nil
}

// Refund computes the amount returned on cancellation. Fee policy is
// the caller's; only the non-negative floor is enforced here.
func Refund(total, cancellationFees float64) float64 {
	if r := total - cancellationFees; r > 0 {
		return r
	}
	return 0
}

// FormatReference groups a 6-character booking reference as XXX-XXX for
// display. Codes of any other length pass through unchanged.
func FormatReference(ref string) string {
	if len(ref) != 6 {
		return ref
	}
	return ref[:3] + "-" + ref[3:]
}

// referenceAlphabet omits 0/O/1/I to keep codes readable over the phone.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference generates a 6-character booking reference. Uniqueness is
// enforced by the bookings table, not here.
func NewReference() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = referenceAlphabet[rand.IntN(len(referenceAlphabet))]
	}
	return string(b)
}
