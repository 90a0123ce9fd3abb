package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Product is a menu entry. Prices are integer cents. Products referenced by
// historical orders are deactivated, never deleted.
type Product struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	SKU            string       `json:"sku" gorm:"type:text;not null;uniqueIndex"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	Category       string       `json:"category" gorm:"type:text;not null;index"`
	UnitPriceCents int64        `json:"unit_price_cents" gorm:"not null"`
	IsActive       bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

func (p *Product) Validate() error {
	if p.SKU == "" {
		return ErrInvalidSKU
	}
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.UnitPriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

type ListRequest struct {
	Category   string
	OnlyActive bool
}

type Service interface {
	Create(ctx context.Context, product *Product) error
	List(ctx context.Context, req ListRequest) ([]Product, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]Product, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
}

var (
	ErrInvalidSKU   = errors.New("invalid_sku")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrNotFound     = errors.New("not_found")
)
