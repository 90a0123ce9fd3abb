package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	"github.com/smallbiznis/tably/internal/clock"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	"github.com/smallbiznis/tably/internal/payment/domain"
	"github.com/smallbiznis/tably/internal/staff"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
	TableSvc  tabledomain.Service
	AuditSvc  auditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	orderRepo orderdomain.Repository
	tableSvc  tabledomain.Service
	auditSvc  auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		orderRepo: p.OrderRepo,
		tableSvc:  p.TableSvc,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, req domain.RecordRequest) (*domain.RecordResult, error) {
	if !req.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if req.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	order, err := s.orderRepo.FindByID(ctx, tx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	// Rejected attempts against real money are still evidence; they go into
	// the audit log before the error is returned.
	if order.Status != orderdomain.OrderBilled {
		rejectErr := error(domain.ErrNotBilled)
		if order.Status == orderdomain.OrderPaid || order.Status == orderdomain.OrderClosed {
			rejectErr = domain.ErrAlreadyPaid
		}
		if err := s.auditRejected(ctx, tx, order, req, rejectErr); err != nil {
			return nil, err
		}
		return nil, &orderdomain.StateError{Err: rejectErr, CurrentStatus: string(order.Status)}
	}

	bill := orderdomain.Bill{
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ServiceCents:  order.ServiceCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
	}
	if err := bill.Check(); err != nil {
		return nil, err
	}

	if req.AmountCents != order.TotalCents {
		if err := s.auditRejected(ctx, tx, order, req, domain.ErrAmountMismatch); err != nil {
			return nil, err
		}
		return nil, &domain.AmountError{ExpectedCents: order.TotalCents, GivenCents: req.AmountCents}
	}

	now := s.clock.Now()
	moved, err := s.orderRepo.TransitionStatus(ctx, tx, req.OrderID,
		[]orderdomain.OrderStatus{orderdomain.OrderBilled}, orderdomain.OrderPaid,
		map[string]any{"updated_at": now})
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race to another register.
		current, err := s.orderRepo.FindByID(ctx, tx, req.OrderID)
		if err != nil {
			return nil, err
		}
		status := string(orderdomain.OrderPaid)
		if current != nil {
			status = string(current.Status)
		}
		if err := s.auditRejected(ctx, tx, order, req, domain.ErrAlreadyPaid); err != nil {
			return nil, err
		}
		return nil, &orderdomain.StateError{Err: domain.ErrAlreadyPaid, CurrentStatus: status}
	}

	receivedBy := "system"
	if actor, ok := staff.FromContext(ctx); ok {
		receivedBy = actor.ID
	}
	payment := &domain.Payment{
		ID:          s.genID.Generate(),
		OrderID:     req.OrderID,
		Method:      req.Method,
		AmountCents: req.AmountCents,
		ReceivedBy:  receivedBy,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "payment.recorded",
		TargetType:   auditdomain.TargetPayment,
		TargetID:     payment.ID.String(),
		BeforeStatus: string(orderdomain.OrderBilled),
		AfterStatus:  string(orderdomain.OrderPaid),
		Metadata: map[string]any{
			"order_id":     req.OrderID.String(),
			"method":       string(req.Method),
			"amount_cents": req.AmountCents,
		},
	}); err != nil {
		return nil, err
	}

	return &domain.RecordResult{Payment: *payment}, nil
}

func (s *Service) Close(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error {
	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.Status != orderdomain.OrderPaid {
		return &orderdomain.StateError{Err: domain.ErrNotPaid, CurrentStatus: string(order.Status)}
	}

	now := s.clock.Now()
	moved, err := s.orderRepo.TransitionStatus(ctx, tx, orderID,
		[]orderdomain.OrderStatus{orderdomain.OrderPaid}, orderdomain.OrderClosed,
		map[string]any{"closed_at": now, "updated_at": now})
	if err != nil {
		return err
	}
	if !moved {
		return &orderdomain.StateError{Err: domain.ErrNotPaid, CurrentStatus: string(order.Status)}
	}

	if order.TableID != nil {
		if err := s.tableSvc.Release(ctx, tx, *order.TableID); err != nil {
			return err
		}
	}

	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order.closed",
		TargetType:   auditdomain.TargetOrder,
		TargetID:     orderID.String(),
		BeforeStatus: string(orderdomain.OrderPaid),
		AfterStatus:  string(orderdomain.OrderClosed),
	})
}

func (s *Service) FindByOrder(ctx context.Context, orderID snowflake.ID) (*domain.Payment, error) {
	payment, err := s.repo.FindByOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	return payment, nil
}

func (s *Service) auditRejected(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, req domain.RecordRequest, reason error) error {
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "payment.rejected",
		TargetType:   auditdomain.TargetOrder,
		TargetID:     req.OrderID.String(),
		BeforeStatus: string(order.Status),
		AfterStatus:  string(order.Status),
		Metadata: map[string]any{
			"method":       string(req.Method),
			"amount_cents": req.AmountCents,
			"reason":       reason.Error(),
		},
	})
}
