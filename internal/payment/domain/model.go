package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Method is the tender type accepted at the register.
type Method string

const (
	MethodCash Method = "cash"
	MethodCard Method = "card"
	MethodQR   Method = "qr"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodQR:
		return true
	}
	return false
}

// Payment records a settled order. Exactly one payment row may ever exist
// per order; exclusivity is enforced by the order status swap, and the
// unique index on order_id backstops it.
type Payment struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID `json:"order_id" gorm:"not null;uniqueIndex"`
	Method      Method       `json:"method" gorm:"type:text;not null"`
	AmountCents int64        `json:"amount_cents" gorm:"not null"`
	ReceivedBy  string       `json:"received_by" gorm:"type:text;not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

type RecordRequest struct {
	OrderID     snowflake.ID
	Method      Method
	AmountCents int64
}

type RecordResult struct {
	Payment Payment `json:"payment"`
}

type Service interface {
	// Record settles a billed order. The amount must match the stored total
	// exactly; partial and over payments are rejected.
	Record(ctx context.Context, tx *gorm.DB, req RecordRequest) (*RecordResult, error)

	// Close retires a paid order and releases its table for cleaning.
	Close(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error

	FindByOrder(ctx context.Context, orderID snowflake.ID) (*Payment, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*Payment, error)
	ListBetween(ctx context.Context, db *gorm.DB, start, end time.Time) ([]Payment, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidMethod  = errors.New("invalid_method")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrAlreadyPaid    = errors.New("conflict_already_paid")
	ErrNotBilled      = errors.New("order_not_billed")
	ErrNotPaid        = errors.New("order_not_paid")
	ErrAmountMismatch = errors.New("amount_mismatch")
)

// AmountError reports the expected total alongside the rejection so the
// register can re-display the bill.
type AmountError struct {
	ExpectedCents int64
	GivenCents    int64
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%v (expected %d, got %d)", ErrAmountMismatch, e.ExpectedCents, e.GivenCents)
}

func (e *AmountError) Unwrap() error { return ErrAmountMismatch }
