package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SendLine struct {
	ProductID snowflake.ID `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Notes     string       `json:"notes,omitempty"`
}

// SendRequest appends lines to an order. Exactly one of TableID/OrderID
// selects the target; both empty means a takeaway order is created.
type SendRequest struct {
	TableID *snowflake.ID
	OrderID *snowflake.ID
	Lines   []SendLine
}

type SendResult struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type CompRequest struct {
	ItemID   snowflake.ID
	Quantity int
	Reason   string
}

// CompResult reports the comped line and, for a partial comp, the
// remaining-quantity line split off from it.
type CompResult struct {
	CompedItem    OrderItem  `json:"comped_item"`
	RemainderItem *OrderItem `json:"remainder_item,omitempty"`
}

type OrderView struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type BillResult struct {
	Order Order `json:"order"`
	Bill  Bill  `json:"bill"`
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*OrderView, error)
	ListOpen(ctx context.Context) ([]Order, error)

	// CreateForTable opens a fresh order linked to a table. Used by seating.
	CreateForTable(ctx context.Context, tx *gorm.DB, tableID snowflake.ID) (*Order, error)
	// VoidIfEmpty voids an order with no items. Used by unseating.
	VoidIfEmpty(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error

	SendToKitchen(ctx context.Context, tx *gorm.DB, req SendRequest) (*SendResult, error)
	AdvanceItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*OrderItem, error)
	ReopenItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*OrderItem, error)
	VoidItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID, reasonCode string) (*OrderItem, error)
	ApplyDiscount(ctx context.Context, tx *gorm.DB, itemID, definitionID snowflake.ID) (*OrderItem, error)
	RemoveDiscount(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*OrderItem, error)
	CompItem(ctx context.Context, tx *gorm.DB, req CompRequest) (*CompResult, error)
	GenerateBill(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (*BillResult, error)
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindOpenByTable(ctx context.Context, db *gorm.DB, tableID snowflake.ID) (*Order, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status OrderStatus) ([]Order, error)
	Insert(ctx context.Context, db *gorm.DB, order *Order) error

	// TransitionStatus is the order-level compare-and-swap: one conditional
	// UPDATE, RowsAffected tells the race loser apart from the winner.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []OrderStatus, to OrderStatus, updates map[string]any) (bool, error)

	InsertItems(ctx context.Context, db *gorm.DB, items []*OrderItem) error
	FindItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*OrderItem, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	CountItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (int64, error)
	TransitionItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID, from []ItemStatus, updates map[string]any) (bool, error)
	UpdateItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID, updates map[string]any) error

	InsertDiscount(ctx context.Context, db *gorm.DB, application *DiscountApplication) error
	FindActiveDiscount(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*DiscountApplication, error)
	RemoveDiscount(ctx context.Context, db *gorm.DB, applicationID snowflake.ID, removedAt time.Time) error

	FindVoidReason(ctx context.Context, db *gorm.DB, code string) (*VoidReason, error)
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidState      = errors.New("invalid_state")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrEmptyLines        = errors.New("empty_lines")
	ErrReasonRequired    = errors.New("reason_required")
	ErrPermissionDenied  = errors.New("permission_denied")
	ErrDiscountExists    = errors.New("conflict_discount_exists")
	ErrProductInactive   = errors.New("product_inactive")
	ErrOrderNotEmpty     = errors.New("order_not_empty")
)

// StateError decorates a state-machine rejection with the status the
// resource actually held.
type StateError struct {
	Err           error
	CurrentStatus string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v (current status %s)", e.Err, e.CurrentStatus)
}

func (e *StateError) Unwrap() error { return e.Err }
