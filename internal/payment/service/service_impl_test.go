package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	auditrepository "github.com/smallbiznis/tably/internal/audit/repository"
	auditservice "github.com/smallbiznis/tably/internal/audit/service"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/tably/internal/catalog/repository"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/config"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
	discountrepository "github.com/smallbiznis/tably/internal/discount/repository"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	orderrepository "github.com/smallbiznis/tably/internal/order/repository"
	orderservice "github.com/smallbiznis/tably/internal/order/service"
	"github.com/smallbiznis/tably/internal/payment/domain"
	paymentrepository "github.com/smallbiznis/tably/internal/payment/repository"
	"github.com/smallbiznis/tably/internal/staff"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	tablerepository "github.com/smallbiznis/tably/internal/table/repository"
	tableservice "github.com/smallbiznis/tably/internal/table/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      domain.Service
	orderSvc orderdomain.Service
	tableSvc tabledomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tabledomain.Table{},
		&tabledomain.Reservation{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.DiscountApplication{},
		&orderdomain.VoidReason{},
		&catalogdomain.Product{},
		&discountdomain.Definition{},
		&domain.Payment{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepository.Provide(),
	})
	orderSvc := orderservice.NewService(orderservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Cfg:          config.Config{TaxRateBps: 700},
		Repo:         orderrepository.Provide(),
		TableRepo:    tablerepository.Provide(),
		CatalogRepo:  catalogrepository.Provide(),
		DiscountRepo: discountrepository.Provide(),
		AuditSvc:     auditSvc,
	})
	tableSvc := tableservice.NewService(tableservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:     tablerepository.Provide(),
		OrderSvc: orderSvc,
		AuditSvc: auditSvc,
	})
	svc := NewService(Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:      paymentrepository.Provide(),
		OrderRepo: orderrepository.Provide(),
		TableSvc:  tableSvc,
		AuditSvc:  auditSvc,
	})

	return &harness{db: db, node: node, clock: fake, svc: svc, orderSvc: orderSvc, tableSvc: tableSvc}
}

func cashierCtx() context.Context {
	actor := staff.NewActor("c-1", "Kay", "cashier", "")
	return staff.WithActor(context.Background(), actor)
}

// billedOrder seats a table, sends one line and generates the bill.
func (h *harness) billedOrder(t *testing.T) *orderdomain.Order {
	t.Helper()

	table := tabledomain.Table{
		ID: h.node.Generate(), Label: fmt.Sprintf("T-%d", h.node.Generate()),
		Capacity: 4, Shape: "square", Status: tabledomain.StatusAvailable,
		CreatedAt: h.clock.Now(), UpdatedAt: h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&table).Error)

	seat, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)

	product := catalogdomain.Product{
		ID: h.node.Generate(), SKU: fmt.Sprintf("SKU-%d", h.node.Generate()), Name: "Burger",
		Category: "mains", UnitPriceCents: 10000, IsActive: true,
		CreatedAt: h.clock.Now(), UpdatedAt: h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&product).Error)

	_, err = h.orderSvc.SendToKitchen(context.Background(), h.db, orderdomain.SendRequest{
		OrderID: &seat.OrderID,
		Lines:   []orderdomain.SendLine{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	bill, err := h.orderSvc.GenerateBill(context.Background(), h.db, seat.OrderID)
	require.NoError(t, err)
	return &bill.Order
}

func TestRecord_ExactAmountSettles(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	result, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID:     order.ID,
		Method:      domain.MethodCard,
		AmountCents: order.TotalCents,
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, result.Payment.OrderID)
	assert.Equal(t, "c-1", result.Payment.ReceivedBy)

	var stored orderdomain.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, orderdomain.OrderPaid, stored.Status)
}

func TestRecord_AmountMismatchRejectedAndAudited(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	_, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID:     order.ID,
		Method:      domain.MethodCash,
		AmountCents: order.TotalCents - 100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	var amountErr *domain.AmountError
	require.ErrorAs(t, err, &amountErr)
	assert.Equal(t, order.TotalCents, amountErr.ExpectedCents)

	var rejected int64
	require.NoError(t, h.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", "payment.rejected").Count(&rejected).Error)
	assert.Equal(t, int64(1), rejected)

	// No payment row and the order is still billed.
	var payments int64
	require.NoError(t, h.db.Model(&domain.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(0), payments)
}

func TestRecord_SecondPaymentConflicts(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	_, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: domain.MethodCash, AmountCents: order.TotalCents,
	})
	require.NoError(t, err)

	_, err = h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: domain.MethodCard, AmountCents: order.TotalCents,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	var stateErr *orderdomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, string(orderdomain.OrderPaid), stateErr.CurrentStatus)

	var payments int64
	require.NoError(t, h.db.Model(&domain.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestRecord_ConcurrentPaymentsSingleWinner(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
				OrderID: order.ID, Method: domain.MethodCash, AmountCents: order.TotalCents,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	}
	require.Equal(t, 1, winners, "exactly one payment may win the billed to paid transition")

	var payments int64
	require.NoError(t, h.db.Model(&domain.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestRecord_OpenOrderNotBilled(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	// Force the order back to open to simulate paying before billing.
	require.NoError(t, h.db.Model(&orderdomain.Order{}).Where("id = ?", order.ID).
		Update("status", orderdomain.OrderOpen).Error)

	_, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: domain.MethodQR, AmountCents: order.TotalCents,
	})
	assert.ErrorIs(t, err, domain.ErrNotBilled)
}

func TestRecord_Validation(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	_, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: "crypto", AmountCents: order.TotalCents,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: domain.MethodCash, AmountCents: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestClose_ReleasesTableForCleaning(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	_, err := h.svc.Record(cashierCtx(), h.db, domain.RecordRequest{
		OrderID: order.ID, Method: domain.MethodCash, AmountCents: order.TotalCents,
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.Close(cashierCtx(), h.db, order.ID))

	var stored orderdomain.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, orderdomain.OrderClosed, stored.Status)
	require.NotNil(t, stored.ClosedAt)

	var table tabledomain.Table
	require.NoError(t, h.db.First(&table, "id = ?", *stored.TableID).Error)
	assert.Equal(t, tabledomain.StatusNeedsCleaning, table.Status)
	assert.Nil(t, table.CurrentOrderID)
}

func TestClose_RequiresPaidOrder(t *testing.T) {
	h := newHarness(t)
	order := h.billedOrder(t)

	err := h.svc.Close(cashierCtx(), h.db, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotPaid)
}
