package domain

import (
	"context"
	"errors"
	"time"
)

// MethodBreakdown is one payment method's share of a day.
type MethodBreakdown struct {
	Method      string `json:"method"`
	Count       int64  `json:"count"`
	AmountCents int64  `json:"amount_cents"`
}

// DailyReport aggregates the orders closed on one calendar day. Derived
// entirely from stored rows; generating it never mutates state.
type DailyReport struct {
	Date time.Time `json:"date"`

	OrdersClosed  int64 `json:"orders_closed"`
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ServiceCents  int64 `json:"service_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`

	VoidedItems int64 `json:"voided_items"`
	CompedItems int64 `json:"comped_items"`
	CompedCents int64 `json:"comped_cents"`

	PaymentMethods []MethodBreakdown `json:"payment_methods"`
}

type Service interface {
	Daily(ctx context.Context, date time.Time) (*DailyReport, error)
}

var ErrInvalidDate = errors.New("invalid_date")
