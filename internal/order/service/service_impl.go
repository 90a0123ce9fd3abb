package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/config"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	"github.com/smallbiznis/tably/internal/staff"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Cfg          config.Config
	Repo         orderdomain.Repository
	TableRepo    tabledomain.Repository
	CatalogRepo  catalogdomain.Repository
	DiscountRepo discountdomain.Repository
	AuditSvc     auditdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	cfg          config.Config
	repo         orderdomain.Repository
	tableRepo    tabledomain.Repository
	catalogRepo  catalogdomain.Repository
	discountRepo discountdomain.Repository
	auditSvc     auditdomain.Service
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("order.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Cfg,
		repo:         p.Repo,
		tableRepo:    p.TableRepo,
		catalogRepo:  p.CatalogRepo,
		discountRepo: p.DiscountRepo,
		auditSvc:     p.AuditSvc,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*orderdomain.OrderView, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &orderdomain.OrderView{Order: *order, Items: items}, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]orderdomain.Order, error) {
	return s.repo.ListByStatus(ctx, s.db, orderdomain.OrderOpen)
}

func (s *Service) CreateForTable(ctx context.Context, tx *gorm.DB, tableID snowflake.ID) (*orderdomain.Order, error) {
	now := s.clock.Now()
	order := &orderdomain.Order{
		ID:        s.genID.Generate(),
		TableID:   &tableID,
		Status:    orderdomain.OrderOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:      "order.created",
		TargetType:  auditdomain.TargetOrder,
		TargetID:    order.ID.String(),
		AfterStatus: string(orderdomain.OrderOpen),
		Metadata:    map[string]any{"table_id": tableID.String()},
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) VoidIfEmpty(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error {
	count, err := s.repo.CountItems(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if count > 0 {
		return orderdomain.ErrOrderNotEmpty
	}
	ok, err := s.repo.TransitionStatus(ctx, tx, orderID,
		[]orderdomain.OrderStatus{orderdomain.OrderOpen}, orderdomain.OrderVoided,
		map[string]any{"updated_at": s.clock.Now()})
	if err != nil {
		return err
	}
	if !ok {
		return s.stateErr(ctx, tx, orderID, orderdomain.ErrInvalidState)
	}
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order.voided",
		TargetType:   auditdomain.TargetOrder,
		TargetID:     orderID.String(),
		BeforeStatus: string(orderdomain.OrderOpen),
		AfterStatus:  string(orderdomain.OrderVoided),
	})
}

func (s *Service) SendToKitchen(ctx context.Context, tx *gorm.DB, req orderdomain.SendRequest) (*orderdomain.SendResult, error) {
	if len(req.Lines) == 0 {
		return nil, orderdomain.ErrEmptyLines
	}

	// Every line is validated before the target order is resolved: a
	// rejected send must not leave a freshly created empty order behind.
	products := make([]*catalogdomain.Product, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, orderdomain.ErrInvalidQuantity
		}
		product, err := s.catalogRepo.FindByID(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, orderdomain.ErrNotFound
		}
		if !product.IsActive {
			return nil, orderdomain.ErrProductInactive
		}
		products = append(products, product)
	}

	order, err := s.resolveTarget(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if order.Status != orderdomain.OrderOpen {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidState, CurrentStatus: string(order.Status)}
	}

	now := s.clock.Now()
	items := make([]*orderdomain.OrderItem, 0, len(req.Lines))
	for i, line := range req.Lines {
		product := products[i]
		item := &orderdomain.OrderItem{
			ID:             s.genID.Generate(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.UnitPriceCents,
			Status:         orderdomain.ItemPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if line.Notes != "" {
			notes := line.Notes
			item.Notes = &notes
		}
		items = append(items, item)
	}

	if err := s.repo.InsertItems(ctx, tx, items); err != nil {
		return nil, err
	}
	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:      "order.items_sent",
		TargetType:  auditdomain.TargetOrder,
		TargetID:    order.ID.String(),
		AfterStatus: string(order.Status),
		Metadata:    map[string]any{"line_count": len(items)},
	}); err != nil {
		return nil, err
	}

	result := &orderdomain.SendResult{Order: *order}
	for _, item := range items {
		result.Items = append(result.Items, *item)
	}
	return result, nil
}

// resolveTarget finds or creates the order the lines belong to: an explicit
// order, the open order of a seated table, or a fresh takeaway order.
func (s *Service) resolveTarget(ctx context.Context, tx *gorm.DB, req orderdomain.SendRequest) (*orderdomain.Order, error) {
	if req.OrderID != nil {
		order, err := s.repo.FindByID(ctx, tx, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, orderdomain.ErrNotFound
		}
		return order, nil
	}

	if req.TableID != nil {
		table, err := s.tableRepo.FindByID(ctx, tx, *req.TableID)
		if err != nil {
			return nil, err
		}
		if table == nil {
			return nil, orderdomain.ErrNotFound
		}
		order, err := s.repo.FindOpenByTable(ctx, tx, table.ID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
		order, err = s.CreateForTable(ctx, tx, table.ID)
		if err != nil {
			return nil, err
		}
		if err := s.tableRepo.LinkOrder(ctx, tx, table.ID, order.ID); err != nil {
			return nil, err
		}
		return order, nil
	}

	// Takeaway: no table.
	now := s.clock.Now()
	order := &orderdomain.Order{
		ID:        s.genID.Generate(),
		Status:    orderdomain.OrderOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:      "order.created",
		TargetType:  auditdomain.TargetOrder,
		TargetID:    order.ID.String(),
		AfterStatus: string(orderdomain.OrderOpen),
		Metadata:    map[string]any{"takeaway": true},
	}); err != nil {
		return nil, err
	}
	return order, nil
}

var itemNextStatus = map[orderdomain.ItemStatus]orderdomain.ItemStatus{
	orderdomain.ItemPending:   orderdomain.ItemPreparing,
	orderdomain.ItemPreparing: orderdomain.ItemReady,
	orderdomain.ItemReady:     orderdomain.ItemServed,
}

func (s *Service) AdvanceItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*orderdomain.OrderItem, error) {
	item, err := s.liveItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	next, ok := itemNextStatus[item.Status]
	if !ok {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}

	moved, err := s.repo.TransitionItem(ctx, tx, itemID,
		[]orderdomain.ItemStatus{item.Status},
		map[string]any{"status": next, "updated_at": s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order_item.advanced",
		TargetType:   auditdomain.TargetOrderItem,
		TargetID:     itemID.String(),
		BeforeStatus: string(item.Status),
		AfterStatus:  string(next),
	}); err != nil {
		return nil, err
	}

	item.Status = next
	return item, nil
}

// ReopenItem is the explicit staff override for served lines; it is audited
// separately from the forward flow.
func (s *Service) ReopenItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*orderdomain.OrderItem, error) {
	if err := s.requireCapability(ctx, staff.CapManagerOverride); err != nil {
		return nil, err
	}

	item, err := s.liveItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != orderdomain.ItemServed {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}

	moved, err := s.repo.TransitionItem(ctx, tx, itemID,
		[]orderdomain.ItemStatus{orderdomain.ItemServed},
		map[string]any{"status": orderdomain.ItemPending, "updated_at": s.clock.Now()})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order_item.reopened",
		TargetType:   auditdomain.TargetOrderItem,
		TargetID:     itemID.String(),
		BeforeStatus: string(orderdomain.ItemServed),
		AfterStatus:  string(orderdomain.ItemPending),
	}); err != nil {
		return nil, err
	}

	item.Status = orderdomain.ItemPending
	return item, nil
}

func (s *Service) VoidItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID, reasonCode string) (*orderdomain.OrderItem, error) {
	if err := s.requireCapability(ctx, staff.CapVoidItem); err != nil {
		return nil, err
	}
	if reasonCode == "" {
		return nil, orderdomain.ErrReasonRequired
	}

	item, err := s.liveItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == orderdomain.ItemServed {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}
	if err := s.requireOpenOrder(ctx, tx, item.OrderID); err != nil {
		return nil, err
	}

	// Coded reasons may demand a manager; unknown codes count as free text.
	reason, err := s.repo.FindVoidReason(ctx, tx, reasonCode)
	if err != nil {
		return nil, err
	}
	if reason != nil && reason.RequiresManager {
		if err := s.requireCapability(ctx, staff.CapManagerOverride); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateItem(ctx, tx, itemID, map[string]any{
		"voided":      true,
		"void_reason": reasonCode,
		"updated_at":  s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order_item.voided",
		TargetType:   auditdomain.TargetOrderItem,
		TargetID:     itemID.String(),
		BeforeStatus: string(item.Status),
		AfterStatus:  string(item.Status),
		Metadata: map[string]any{
			"order_id":    item.OrderID.String(),
			"reason":      reasonCode,
			"gross_cents": item.GrossCents(),
		},
	}); err != nil {
		return nil, err
	}

	item.Voided = true
	item.VoidReason = &reasonCode
	return item, nil
}

func (s *Service) ApplyDiscount(ctx context.Context, tx *gorm.DB, itemID, definitionID snowflake.ID) (*orderdomain.OrderItem, error) {
	if err := s.requireCapability(ctx, staff.CapApplyDiscount); err != nil {
		return nil, err
	}

	item, err := s.liveItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOpenOrder(ctx, tx, item.OrderID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveDiscount(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, orderdomain.ErrDiscountExists
	}

	definition, err := s.discountRepo.FindByID(ctx, tx, definitionID)
	if err != nil {
		return nil, err
	}
	if definition == nil || !definition.IsActive {
		return nil, orderdomain.ErrNotFound
	}
	if definition.RequiresManager {
		if err := s.requireCapability(ctx, staff.CapManagerOverride); err != nil {
			return nil, err
		}
	}

	base := item.GrossCents()
	amount := definition.AmountFor(base)
	now := s.clock.Now()

	actor, _ := staff.FromContext(ctx)
	application := &orderdomain.DiscountApplication{
		ID:            s.genID.Generate(),
		OrderItemID:   itemID,
		DefinitionID:  definition.ID,
		OriginalCents: base,
		DiscountCents: amount,
		AppliedBy:     actor.ID,
		CreatedAt:     now,
	}
	if definition.RequiresManager {
		approver := actor.ID
		application.ApprovedBy = &approver
	}

	if err := s.repo.InsertDiscount(ctx, tx, application); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, tx, itemID, map[string]any{
		"discount_cents": amount,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:     "order_item.discount_applied",
		TargetType: auditdomain.TargetDiscount,
		TargetID:   application.ID.String(),
		Metadata: map[string]any{
			"order_item_id":  itemID.String(),
			"definition_id":  definition.ID.String(),
			"original_cents": base,
			"discount_cents": amount,
		},
	}); err != nil {
		return nil, err
	}

	item.DiscountCents = amount
	return item, nil
}

func (s *Service) RemoveDiscount(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*orderdomain.OrderItem, error) {
	item, err := s.liveItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOpenOrder(ctx, tx, item.OrderID); err != nil {
		return nil, err
	}

	application, err := s.repo.FindActiveDiscount(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, orderdomain.ErrNotFound
	}

	now := s.clock.Now()
	if err := s.repo.RemoveDiscount(ctx, tx, application.ID, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, tx, itemID, map[string]any{
		"discount_cents": 0,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:     "order_item.discount_removed",
		TargetType: auditdomain.TargetDiscount,
		TargetID:   application.ID.String(),
		Metadata: map[string]any{
			"order_item_id":  itemID.String(),
			"restored_cents": application.OriginalCents,
		},
	}); err != nil {
		return nil, err
	}

	item.DiscountCents = 0
	return item, nil
}

func (s *Service) CompItem(ctx context.Context, tx *gorm.DB, req orderdomain.CompRequest) (*orderdomain.CompResult, error) {
	if err := s.requireCapability(ctx, staff.CapCompItem); err != nil {
		return nil, err
	}
	if err := s.requireCapability(ctx, staff.CapManagerOverride); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, orderdomain.ErrReasonRequired
	}

	item, err := s.liveItem(ctx, tx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOpenOrder(ctx, tx, item.OrderID); err != nil {
		return nil, err
	}
	if req.Quantity < 1 || req.Quantity > item.Quantity {
		return nil, orderdomain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	remaining := item.Quantity - req.Quantity

	// The comped sub-line keeps the original row identity; a partial comp
	// splits the remainder into a fresh line appended to the sequence.
	updates := map[string]any{
		"comped":      true,
		"comp_reason": req.Reason,
		"quantity":    req.Quantity,
		"updated_at":  now,
	}
	if err := s.repo.UpdateItem(ctx, tx, req.ItemID, updates); err != nil {
		return nil, err
	}

	var remainder *orderdomain.OrderItem
	if remaining > 0 {
		remainder = &orderdomain.OrderItem{
			ID:             s.genID.Generate(),
			OrderID:        item.OrderID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       remaining,
			UnitPriceCents: item.UnitPriceCents,
			Status:         item.Status,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.InsertItems(ctx, tx, []*orderdomain.OrderItem{remainder}); err != nil {
			return nil, err
		}
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order_item.comped",
		TargetType:   auditdomain.TargetOrderItem,
		TargetID:     req.ItemID.String(),
		BeforeStatus: string(item.Status),
		AfterStatus:  string(item.Status),
		Metadata: map[string]any{
			"order_id":     item.OrderID.String(),
			"reason":       req.Reason,
			"comped_qty":   req.Quantity,
			"remaining":    remaining,
			"comped_cents": int64(req.Quantity) * item.UnitPriceCents,
		},
	}); err != nil {
		return nil, err
	}

	comped := *item
	comped.Comped = true
	comped.CompReason = &req.Reason
	comped.Quantity = req.Quantity
	return &orderdomain.CompResult{CompedItem: comped, RemainderItem: remainder}, nil
}

func (s *Service) GenerateBill(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (*orderdomain.BillResult, error) {
	order, err := s.repo.FindByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}

	// Repeated calls on a billed order return the stored snapshot; totals
	// must never drift once billed.
	if order.Status == orderdomain.OrderBilled {
		return &orderdomain.BillResult{Order: *order, Bill: storedBill(order)}, nil
	}
	if order.Status != orderdomain.OrderOpen {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidState, CurrentStatus: string(order.Status)}
	}

	items, err := s.repo.ListItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	bill := orderdomain.ComputeBill(items, s.cfg.TaxRateBps, s.cfg.ServiceRateBps)
	if err := bill.Check(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	moved, err := s.repo.TransitionStatus(ctx, tx, orderID,
		[]orderdomain.OrderStatus{orderdomain.OrderOpen}, orderdomain.OrderBilled,
		map[string]any{
			"subtotal_cents": bill.SubtotalCents,
			"tax_cents":      bill.TaxCents,
			"service_cents":  bill.ServiceCents,
			"discount_cents": bill.DiscountCents,
			"total_cents":    bill.TotalCents,
			"billed_at":      now,
			"updated_at":     now,
		})
	if err != nil {
		return nil, err
	}
	if !moved {
		current, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == orderdomain.OrderBilled {
			return &orderdomain.BillResult{Order: *current, Bill: storedBill(current)}, nil
		}
		return nil, s.stateErr(ctx, tx, orderID, orderdomain.ErrInvalidState)
	}

	if order.TableID != nil {
		// Best effort: a cleared table may no longer be seated.
		if _, err := s.tableRepo.Transition(ctx, tx, *order.TableID,
			[]tabledomain.Status{tabledomain.StatusSeated}, tabledomain.StatusBilled,
			map[string]any{"updated_at": now}); err != nil {
			return nil, err
		}
	}

	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		Action:       "order.billed",
		TargetType:   auditdomain.TargetOrder,
		TargetID:     orderID.String(),
		BeforeStatus: string(orderdomain.OrderOpen),
		AfterStatus:  string(orderdomain.OrderBilled),
		Metadata: map[string]any{
			"subtotal_cents": bill.SubtotalCents,
			"tax_cents":      bill.TaxCents,
			"service_cents":  bill.ServiceCents,
			"discount_cents": bill.DiscountCents,
			"total_cents":    bill.TotalCents,
		},
	}); err != nil {
		return nil, err
	}

	order.Status = orderdomain.OrderBilled
	order.SubtotalCents = bill.SubtotalCents
	order.TaxCents = bill.TaxCents
	order.ServiceCents = bill.ServiceCents
	order.DiscountCents = bill.DiscountCents
	order.TotalCents = bill.TotalCents
	order.BilledAt = &now
	return &orderdomain.BillResult{Order: *order, Bill: bill}, nil
}

func storedBill(order *orderdomain.Order) orderdomain.Bill {
	return orderdomain.Bill{
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ServiceCents:  order.ServiceCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
	}
}

// liveItem loads an item that is neither voided nor comped.
func (s *Service) liveItem(ctx context.Context, tx *gorm.DB, itemID snowflake.ID) (*orderdomain.OrderItem, error) {
	item, err := s.repo.FindItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, orderdomain.ErrNotFound
	}
	if item.Voided || item.Comped {
		return nil, &orderdomain.StateError{Err: orderdomain.ErrInvalidTransition, CurrentStatus: string(item.Status)}
	}
	return item, nil
}

func (s *Service) requireOpenOrder(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error {
	order, err := s.repo.FindByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return orderdomain.ErrNotFound
	}
	if order.Status != orderdomain.OrderOpen {
		return &orderdomain.StateError{Err: orderdomain.ErrInvalidState, CurrentStatus: string(order.Status)}
	}
	return nil
}

func (s *Service) requireCapability(ctx context.Context, capability string) error {
	actor, ok := staff.FromContext(ctx)
	if !ok || !actor.Can(capability) {
		return orderdomain.ErrPermissionDenied
	}
	return nil
}

func (s *Service) stateErr(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, err error) error {
	current, ferr := s.repo.FindByID(ctx, tx, orderID)
	if ferr != nil || current == nil {
		return err
	}
	return &orderdomain.StateError{Err: err, CurrentStatus: string(current.Status)}
}
