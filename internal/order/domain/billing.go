package domain

import (
	"errors"

	"github.com/smallbiznis/tably/pkg/money"
)

// Bill is the totals structure consumed verbatim by the receipt
// collaborator. Field semantics must not change for an order once billed.
type Bill struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ServiceCents  int64 `json:"service_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

var ErrBillInvariant = errors.New("bill_invariant_violation")

// ComputeBill derives totals from current item state. Pure and
// deterministic: same items and rates always produce the same bill.
//
// Subtotal is the gross (pre-discount) sum of live lines; tax and service
// are applied to the discounted base with round-half-up cent rounding, so
// total = subtotal + tax + service - discount always holds.
func ComputeBill(items []OrderItem, taxRateBps, serviceRateBps int64) Bill {
	var subtotal, discount int64
	for _, item := range items {
		gross := item.GrossCents()
		if gross == 0 {
			continue
		}
		subtotal += gross
		discount += money.Min(item.DiscountCents, gross)
	}

	base := subtotal - discount
	tax := money.ApplyRateBps(base, taxRateBps)
	service := money.ApplyRateBps(base, serviceRateBps)

	return Bill{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ServiceCents:  service,
		DiscountCents: discount,
		TotalCents:    subtotal + tax + service - discount,
	}
}

// Check verifies the hard total identity. Run on every bill generation and
// every payment.
func (b Bill) Check() error {
	if b.TotalCents != b.SubtotalCents+b.TaxCents+b.ServiceCents-b.DiscountCents {
		return ErrBillInvariant
	}
	return nil
}
