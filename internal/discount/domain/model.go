package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/pkg/money"
	"gorm.io/gorm"
)

// DiscountKind represents how a discount reduces a line amount.
type DiscountKind string

const (
	// KindPercentage reduces by ValueBps basis points of the line amount.
	KindPercentage DiscountKind = "percentage"
	// KindFixed reduces by ValueCents, never below zero.
	KindFixed DiscountKind = "fixed"
)

// Definition is a discount policy. Code is a stable engine-facing
// identifier; name is UI-facing and editable.
type Definition struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	Code            string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name            string       `json:"name" gorm:"type:text;not null"`
	Kind            DiscountKind `json:"kind" gorm:"type:text;not null"`
	ValueBps        int64        `json:"value_bps" gorm:"not null;default:0"`
	ValueCents      int64        `json:"value_cents" gorm:"not null;default:0"`
	MaxCents        int64        `json:"max_cents" gorm:"not null;default:0"`
	RequiresManager bool         `json:"requires_manager" gorm:"not null;default:false"`
	IsActive        bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null"`
}

func (Definition) TableName() string { return "discount_definitions" }

func (d *Definition) Validate() error {
	if d.Code == "" {
		return ErrInvalidCode
	}
	switch d.Kind {
	case KindPercentage:
		if d.ValueBps <= 0 || d.ValueBps > money.BpsDenominator {
			return ErrInvalidValue
		}
	case KindFixed:
		if d.ValueCents <= 0 {
			return ErrInvalidValue
		}
	default:
		return ErrInvalidKind
	}
	if d.MaxCents < 0 {
		return ErrInvalidValue
	}
	return nil
}

// AmountFor computes the discount in cents against a pre-discount base,
// capped at MaxCents and never exceeding the base itself.
func (d *Definition) AmountFor(baseCents int64) int64 {
	if baseCents <= 0 {
		return 0
	}
	var amount int64
	switch d.Kind {
	case KindPercentage:
		amount = money.ApplyRateBps(baseCents, d.ValueBps)
	case KindFixed:
		amount = d.ValueCents
	}
	amount = money.CapAt(amount, d.MaxCents)
	return money.Min(amount, baseCents)
}

type Service interface {
	Create(ctx context.Context, def *Definition) error
	List(ctx context.Context, onlyActive bool) ([]Definition, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Definition, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, def *Definition) error
	List(ctx context.Context, db *gorm.DB, onlyActive bool) ([]Definition, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Definition, error)
}

var (
	ErrInvalidCode  = errors.New("invalid_code")
	ErrInvalidKind  = errors.New("invalid_kind")
	ErrInvalidValue = errors.New("invalid_value")
	ErrNotFound     = errors.New("not_found")
)
