package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the table lifecycle state.
type Status string

const (
	StatusAvailable     Status = "available"
	StatusReserved      Status = "reserved"
	StatusSeated        Status = "seated"
	StatusBilled        Status = "billed"
	StatusNeedsCleaning Status = "needs_cleaning"
	StatusBlocked       Status = "blocked"
)

// Table is a physical dining table. At most one non-closed order may be
// linked at any time. Tables referenced by historical orders are soft
// deleted, never removed.
type Table struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	Label          string        `json:"label" gorm:"type:text;not null;uniqueIndex"`
	Capacity       int           `json:"capacity" gorm:"not null"`
	Shape          string        `json:"shape" gorm:"type:text;not null;default:'square'"`
	Status         Status        `json:"status" gorm:"type:text;not null;default:'available';index"`
	CurrentOrderID *snowflake.ID `json:"current_order_id,omitempty"`
	GuestCount     int           `json:"guest_count" gorm:"not null;default:0"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"not null"`
}

func (Table) TableName() string { return "dining_tables" }

// Reservation is a forward booking against a table. Creating one does not
// create an order.
type Reservation struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	TableID    snowflake.ID `json:"table_id" gorm:"not null;index"`
	GuestName  string       `json:"guest_name" gorm:"type:text;not null"`
	GuestPhone string       `json:"guest_phone" gorm:"type:text"`
	PartySize  int          `json:"party_size" gorm:"not null"`
	ReservedAt time.Time    `json:"reserved_at" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }
