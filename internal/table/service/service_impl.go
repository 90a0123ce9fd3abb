package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	"github.com/smallbiznis/tably/internal/clock"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     tabledomain.Repository
	OrderSvc orderdomain.Service
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     tabledomain.Repository
	orderSvc orderdomain.Service
	auditSvc auditdomain.Service
}

func NewService(p Params) tabledomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("table.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		orderSvc: p.OrderSvc,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, table *tabledomain.Table) error {
	if table.Label == "" {
		return tabledomain.ErrInvalidLabel
	}
	if table.Capacity < 1 {
		return tabledomain.ErrInvalidCapacity
	}

	now := s.clock.Now()
	table.ID = s.genID.Generate()
	if table.Status == "" {
		table.Status = tabledomain.StatusAvailable
	}
	if table.Shape == "" {
		table.Shape = "square"
	}
	table.CreatedAt = now
	table.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, table); err != nil {
		return err
	}
	return s.auditSvc.Record(ctx, nil, auditdomain.Entry{
		Action:      "table.created",
		TargetType:  auditdomain.TargetTable,
		TargetID:    table.ID.String(),
		AfterStatus: string(table.Status),
		Metadata:    map[string]any{"label": table.Label, "capacity": table.Capacity},
	})
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*tabledomain.Table, error) {
	table, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, tabledomain.ErrNotFound
	}
	return table, nil
}

func (s *Service) List(ctx context.Context) ([]tabledomain.Table, error) {
	return s.repo.List(ctx, s.db)
}

// Seat wins or loses the table atomically before any order is created: the
// conditional UPDATE runs first, so a losing waiter leaves no stray order
// behind.
func (s *Service) Seat(ctx context.Context, tx *gorm.DB, req tabledomain.SeatRequest) (*tabledomain.SeatResult, error) {
	if req.GuestCount < 1 {
		return nil, tabledomain.ErrInvalidGuestCount
	}

	table, err := s.repo.FindByID(ctx, tx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, tabledomain.ErrNotFound
	}
	if req.GuestCount > table.Capacity {
		return nil, tabledomain.ErrInvalidGuestCount
	}

	moved, err := s.repo.Transition(ctx, tx, req.TableID,
		[]tabledomain.Status{tabledomain.StatusAvailable, tabledomain.StatusReserved},
		tabledomain.StatusSeated,
		map[string]any{"guest_count": req.GuestCount, "updated_at": s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.conflictErr(ctx, tx, req.TableID, tabledomain.ErrAlreadySeated)
	}

	order, err := s.orderSvc.CreateForTable(ctx, tx, req.TableID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.LinkOrder(ctx, tx, req.TableID, order.ID); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "table.seated",
		TargetType:   auditdomain.TargetTable,
		TargetID:     req.TableID.String(),
		BeforeStatus: string(table.Status),
		AfterStatus:  string(tabledomain.StatusSeated),
		Metadata:     map[string]any{"order_id": order.ID.String(), "guest_count": req.GuestCount},
	}); err != nil {
		return nil, err
	}

	table.Status = tabledomain.StatusSeated
	table.GuestCount = req.GuestCount
	table.CurrentOrderID = &order.ID
	return &tabledomain.SeatResult{Table: *table, OrderID: order.ID}, nil
}

// Unseat reverses a mistaken seating. Refused once anything has been sent to
// the kitchen.
func (s *Service) Unseat(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*tabledomain.Table, error) {
	table, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, tabledomain.ErrNotFound
	}
	if table.Status != tabledomain.StatusSeated {
		return nil, &tabledomain.ConflictError{Err: tabledomain.ErrInvalidTransition, CurrentStatus: table.Status}
	}

	if table.CurrentOrderID != nil {
		if err := s.orderSvc.VoidIfEmpty(ctx, tx, *table.CurrentOrderID); err != nil {
			return nil, err
		}
	}

	moved, err := s.repo.Transition(ctx, tx, id,
		[]tabledomain.Status{tabledomain.StatusSeated}, tabledomain.StatusAvailable,
		map[string]any{"guest_count": 0, "current_order_id": nil, "updated_at": s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.conflictErr(ctx, tx, id, tabledomain.ErrInvalidTransition)
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "table.unseated",
		TargetType:   auditdomain.TargetTable,
		TargetID:     id.String(),
		BeforeStatus: string(tabledomain.StatusSeated),
		AfterStatus:  string(tabledomain.StatusAvailable),
	}); err != nil {
		return nil, err
	}

	table.Status = tabledomain.StatusAvailable
	table.GuestCount = 0
	table.CurrentOrderID = nil
	return table, nil
}

// Clear marks a billed table as vacated by its guests.
func (s *Service) Clear(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*tabledomain.Table, error) {
	return s.simpleTransition(ctx, tx, id, "table.cleared",
		[]tabledomain.Status{tabledomain.StatusBilled}, tabledomain.StatusNeedsCleaning,
		map[string]any{"guest_count": 0, "current_order_id": nil})
}

// Clean returns a bussed table to the floor.
func (s *Service) Clean(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*tabledomain.Table, error) {
	return s.simpleTransition(ctx, tx, id, "table.cleaned",
		[]tabledomain.Status{tabledomain.StatusNeedsCleaning}, tabledomain.StatusAvailable, nil)
}

func (s *Service) SetBlocked(ctx context.Context, tx *gorm.DB, id snowflake.ID, blocked bool) (*tabledomain.Table, error) {
	if blocked {
		return s.simpleTransition(ctx, tx, id, "table.blocked",
			[]tabledomain.Status{tabledomain.StatusAvailable}, tabledomain.StatusBlocked, nil)
	}
	return s.simpleTransition(ctx, tx, id, "table.unblocked",
		[]tabledomain.Status{tabledomain.StatusBlocked}, tabledomain.StatusAvailable, nil)
}

func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, req tabledomain.ReserveRequest) (*tabledomain.Reservation, error) {
	if req.PartySize < 1 {
		return nil, tabledomain.ErrInvalidGuestCount
	}

	table, err := s.repo.FindByID(ctx, tx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, tabledomain.ErrNotFound
	}

	moved, err := s.repo.Transition(ctx, tx, req.TableID,
		[]tabledomain.Status{tabledomain.StatusAvailable}, tabledomain.StatusReserved,
		map[string]any{"updated_at": s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.conflictErr(ctx, tx, req.TableID, tabledomain.ErrInvalidTransition)
	}

	reservation := &tabledomain.Reservation{
		ID:         s.genID.Generate(),
		TableID:    req.TableID,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		PartySize:  req.PartySize,
		ReservedAt: req.ReservedAt,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.InsertReservation(ctx, tx, reservation); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "table.reserved",
		TargetType:   auditdomain.TargetTable,
		TargetID:     req.TableID.String(),
		BeforeStatus: string(tabledomain.StatusAvailable),
		AfterStatus:  string(tabledomain.StatusReserved),
		Metadata:     map[string]any{"reservation_id": reservation.ID.String(), "party_size": req.PartySize},
	}); err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release detaches a closed order from its table and queues the table for
// cleaning. Called by the payment recorder inside its transaction.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	_, err := s.simpleTransition(ctx, tx, id, "table.released",
		[]tabledomain.Status{tabledomain.StatusBilled, tabledomain.StatusSeated},
		tabledomain.StatusNeedsCleaning,
		map[string]any{"guest_count": 0, "current_order_id": nil})
	return err
}

func (s *Service) simpleTransition(ctx context.Context, tx *gorm.DB, id snowflake.ID, action string, from []tabledomain.Status, to tabledomain.Status, extra map[string]any) (*tabledomain.Table, error) {
	table, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, tabledomain.ErrNotFound
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	for column, value := range extra {
		updates[column] = value
	}

	moved, err := s.repo.Transition(ctx, tx, id, from, to, updates)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.conflictErr(ctx, tx, id, tabledomain.ErrInvalidTransition)
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       action,
		TargetType:   auditdomain.TargetTable,
		TargetID:     id.String(),
		BeforeStatus: string(table.Status),
		AfterStatus:  string(to),
	}); err != nil {
		return nil, err
	}

	table.Status = to
	if _, ok := extra["guest_count"]; ok {
		table.GuestCount = 0
		table.CurrentOrderID = nil
	}
	return table, nil
}

// conflictErr reloads the row so the caller learns the status it lost to.
func (s *Service) conflictErr(ctx context.Context, tx *gorm.DB, id snowflake.ID, err error) error {
	current, ferr := s.repo.FindByID(ctx, tx, id)
	if ferr != nil || current == nil {
		return err
	}
	if current.Status == tabledomain.StatusSeated && err == tabledomain.ErrAlreadySeated {
		return &tabledomain.ConflictError{Err: tabledomain.ErrAlreadySeated, CurrentStatus: current.Status}
	}
	if err == tabledomain.ErrAlreadySeated {
		err = tabledomain.ErrInvalidTransition
	}
	return &tabledomain.ConflictError{Err: err, CurrentStatus: current.Status}
}
