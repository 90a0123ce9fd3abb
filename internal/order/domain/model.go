package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

const (
	OrderOpen   OrderStatus = "open"
	OrderBilled OrderStatus = "billed"
	OrderPaid   OrderStatus = "paid"
	OrderClosed OrderStatus = "closed"
	OrderVoided OrderStatus = "voided"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

// Order totals are always recomputed from item state by the bill engine;
// they are snapshots, never independently editable fields.
type Order struct {
	ID      snowflake.ID  `json:"id" gorm:"primaryKey"`
	TableID *snowflake.ID `json:"table_id,omitempty" gorm:"index"`
	Status  OrderStatus   `json:"status" gorm:"type:text;not null;default:'open';index"`

	SubtotalCents int64 `json:"subtotal_cents" gorm:"not null;default:0"`
	TaxCents      int64 `json:"tax_cents" gorm:"not null;default:0"`
	ServiceCents  int64 `json:"service_cents" gorm:"not null;default:0"`
	DiscountCents int64 `json:"discount_cents" gorm:"not null;default:0"`
	TotalCents    int64 `json:"total_cents" gorm:"not null;default:0"`

	BilledAt  *time.Time `json:"billed_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one ordered line. Voided and comped rows stay in the
// sequence forever; they just stop contributing to totals.
type OrderItem struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID   snowflake.ID `json:"order_id" gorm:"not null;index"`
	ProductID snowflake.ID `json:"product_id" gorm:"not null"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Quantity  int          `json:"quantity" gorm:"not null"`

	UnitPriceCents int64      `json:"unit_price_cents" gorm:"not null"`
	Status         ItemStatus `json:"status" gorm:"type:text;not null;default:'pending'"`

	Voided     bool    `json:"voided" gorm:"not null;default:false"`
	VoidReason *string `json:"void_reason,omitempty" gorm:"type:text"`
	Comped     bool    `json:"comped" gorm:"not null;default:false"`
	CompReason *string `json:"comp_reason,omitempty" gorm:"type:text"`

	// DiscountCents mirrors the active discount application for this line;
	// zero when none is active.
	DiscountCents int64 `json:"discount_cents" gorm:"not null;default:0"`

	Notes     *string   `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// GrossCents is the pre-discount line amount. Voided and comped lines
// contribute zero.
func (i OrderItem) GrossCents() int64 {
	if i.Voided || i.Comped {
		return 0
	}
	return int64(i.Quantity) * i.UnitPriceCents
}

// DiscountApplication is the append-only record of a discount applied to a
// line. Removal stamps RemovedAt; the row itself is retained for audit.
type DiscountApplication struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderItemID  snowflake.ID `json:"order_item_id" gorm:"not null;index"`
	DefinitionID snowflake.ID `json:"definition_id" gorm:"not null"`

	OriginalCents int64 `json:"original_cents" gorm:"not null"`
	DiscountCents int64 `json:"discount_cents" gorm:"not null"`

	AppliedBy  string     `json:"applied_by" gorm:"type:text;not null"`
	ApprovedBy *string    `json:"approved_by,omitempty" gorm:"type:text"`
	RemovedAt  *time.Time `json:"removed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
}

func (DiscountApplication) TableName() string { return "discount_applications" }

// VoidReason is a coded reason for voiding a line. Reasons flagged
// requires_manager need an elevated actor.
type VoidReason struct {
	Code            string    `json:"code" gorm:"primaryKey;type:text"`
	Label           string    `json:"label" gorm:"type:text;not null"`
	RequiresManager bool      `json:"requires_manager" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null"`
}

func (VoidReason) TableName() string { return "void_reasons" }
