package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(quantity int, unitPrice int64) OrderItem {
	return OrderItem{Quantity: quantity, UnitPriceCents: unitPrice, Status: ItemPending}
}

func TestComputeBill_PlainOrder(t *testing.T) {
	items := []OrderItem{
		item(2, 8500),
		item(1, 3000),
	}

	bill := ComputeBill(items, 700, 0)

	assert.Equal(t, int64(20000), bill.SubtotalCents)
	assert.Equal(t, int64(1400), bill.TaxCents)
	assert.Equal(t, int64(0), bill.ServiceCents)
	assert.Equal(t, int64(0), bill.DiscountCents)
	assert.Equal(t, int64(21400), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_DiscountReducesTaxBase(t *testing.T) {
	discounted := item(1, 10000)
	discounted.DiscountCents = 1000

	bill := ComputeBill([]OrderItem{discounted, item(1, 10000)}, 700, 0)

	assert.Equal(t, int64(20000), bill.SubtotalCents)
	assert.Equal(t, int64(1000), bill.DiscountCents)
	// Tax applies to the discounted base of 19000.
	assert.Equal(t, int64(1330), bill.TaxCents)
	assert.Equal(t, int64(20330), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_VoidedAndCompedContributeNothing(t *testing.T) {
	voided := item(3, 5000)
	voided.Voided = true
	comped := item(1, 7500)
	comped.Comped = true

	bill := ComputeBill([]OrderItem{voided, comped, item(2, 4000)}, 700, 0)

	assert.Equal(t, int64(8000), bill.SubtotalCents)
	assert.Equal(t, int64(560), bill.TaxCents)
	assert.Equal(t, int64(8560), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_ServiceCharge(t *testing.T) {
	bill := ComputeBill([]OrderItem{item(1, 10000)}, 700, 1000)

	assert.Equal(t, int64(10000), bill.SubtotalCents)
	assert.Equal(t, int64(700), bill.TaxCents)
	assert.Equal(t, int64(1000), bill.ServiceCents)
	assert.Equal(t, int64(11700), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_RoundingHalfUp(t *testing.T) {
	// 7% of 2150 = 150.5, rounds up to 151.
	bill := ComputeBill([]OrderItem{item(1, 2150)}, 700, 0)
	assert.Equal(t, int64(151), bill.TaxCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_DiscountNeverExceedsLine(t *testing.T) {
	over := item(1, 500)
	over.DiscountCents = 900

	bill := ComputeBill([]OrderItem{over}, 700, 0)

	assert.Equal(t, int64(500), bill.SubtotalCents)
	assert.Equal(t, int64(500), bill.DiscountCents)
	assert.Equal(t, int64(0), bill.TaxCents)
	assert.Equal(t, int64(0), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestComputeBill_EmptyOrder(t *testing.T) {
	bill := ComputeBill(nil, 700, 0)
	assert.Equal(t, int64(0), bill.TotalCents)
	assert.NoError(t, bill.Check())
}

func TestBillCheck_DetectsDrift(t *testing.T) {
	bill := Bill{SubtotalCents: 1000, TaxCents: 70, TotalCents: 1000}
	assert.ErrorIs(t, bill.Check(), ErrBillInvariant)
}
