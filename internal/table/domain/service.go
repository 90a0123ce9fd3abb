package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SeatRequest struct {
	TableID    snowflake.ID
	GuestCount int
}

type SeatResult struct {
	Table   Table        `json:"table"`
	OrderID snowflake.ID `json:"order_id"`
}

type ReserveRequest struct {
	TableID    snowflake.ID
	GuestName  string
	GuestPhone string
	PartySize  int
	ReservedAt time.Time
}

// Service governs the table state machine. Mutating methods run inside the
// transaction handed down by the idempotency executor; every transition
// writes one audit entry.
type Service interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id snowflake.ID) (*Table, error)
	List(ctx context.Context) ([]Table, error)

	Seat(ctx context.Context, tx *gorm.DB, req SeatRequest) (*SeatResult, error)
	Unseat(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Table, error)
	Clear(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Table, error)
	Clean(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Table, error)
	SetBlocked(ctx context.Context, tx *gorm.DB, id snowflake.ID, blocked bool) (*Table, error)
	Reserve(ctx context.Context, tx *gorm.DB, req ReserveRequest) (*Reservation, error)

	// Release moves a table whose order just closed to needs_cleaning and
	// clears the order link. Called by the payment recorder.
	Release(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Table, error)
	List(ctx context.Context, db *gorm.DB) ([]Table, error)
	Insert(ctx context.Context, db *gorm.DB, table *Table) error

	// Transition performs the compare-and-swap status update in a single
	// statement; false means the row was not in any of the from states.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from []Status, to Status, updates map[string]any) (bool, error)

	LinkOrder(ctx context.Context, db *gorm.DB, id, orderID snowflake.ID) error
	InsertReservation(ctx context.Context, db *gorm.DB, reservation *Reservation) error
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrAlreadySeated     = errors.New("conflict_already_seated")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidGuestCount = errors.New("invalid_guest_count")
	ErrInvalidLabel      = errors.New("invalid_label")
	ErrInvalidCapacity   = errors.New("invalid_capacity")
)

// ConflictError decorates a transition failure with the status the row
// actually held, so clients can decide whether to refresh or give up.
type ConflictError struct {
	Err           error
	CurrentStatus Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v (current status %s)", e.Err, e.CurrentStatus)
}

func (e *ConflictError) Unwrap() error { return e.Err }
