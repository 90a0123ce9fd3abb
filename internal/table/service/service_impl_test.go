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
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	tablerepository "github.com/smallbiznis/tably/internal/table/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	tableSvc tabledomain.Service
	orderSvc orderdomain.Service
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
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(),
	})
	orderSvc := orderservice.NewService(orderservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Cfg:          config.Config{TaxRateBps: 700},
		Repo:         orderrepository.Provide(),
		TableRepo:    tablerepository.Provide(),
		CatalogRepo:  catalogrepository.Provide(),
		DiscountRepo: discountrepository.Provide(),
		AuditSvc:     auditSvc,
	})
	tableSvc := NewService(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Repo:     tablerepository.Provide(),
		OrderSvc: orderSvc,
		AuditSvc: auditSvc,
	})

	return &harness{db: db, node: node, clock: fake, tableSvc: tableSvc, orderSvc: orderSvc}
}

func (h *harness) createTable(t *testing.T, label string, capacity int) *tabledomain.Table {
	t.Helper()
	table := &tabledomain.Table{Label: label, Capacity: capacity}
	require.NoError(t, h.tableSvc.Create(context.Background(), table))
	return table
}

func (h *harness) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&auditdomain.AuditLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}

func TestSeat_CreatesOrderAndLinksTable(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	result, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusSeated, result.Table.Status)
	assert.Equal(t, 2, result.Table.GuestCount)
	require.NotZero(t, result.OrderID)

	stored, err := h.tableSvc.Get(context.Background(), table.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentOrderID)
	assert.Equal(t, result.OrderID, *stored.CurrentOrderID)

	view, err := h.orderSvc.Get(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.OrderOpen, view.Order.Status)

	assert.Equal(t, int64(1), h.auditCount(t, "table.seated"))
	assert.Equal(t, int64(1), h.auditCount(t, "order.created"))
}

func TestSeat_SecondWaiterLoses(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	_, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)

	_, err = h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, tabledomain.ErrAlreadySeated)

	var conflict *tabledomain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, tabledomain.StatusSeated, conflict.CurrentStatus)

	// Exactly one order exists; the loser created nothing.
	var orders int64
	require.NoError(t, h.db.Model(&orderdomain.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestSeat_ConcurrentRequestsSingleWinner(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, tabledomain.ErrAlreadySeated)
	}
	require.Equal(t, 1, winners, "exactly one seat request may win the transition")

	var orders int64
	require.NoError(t, h.db.Model(&orderdomain.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	stored, err := h.tableSvc.Get(context.Background(), table.ID)
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusSeated, stored.Status)
}

func TestSeat_GuestCountValidation(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 2)

	_, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 0})
	assert.ErrorIs(t, err, tabledomain.ErrInvalidGuestCount)

	_, err = h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 5})
	assert.ErrorIs(t, err, tabledomain.ErrInvalidGuestCount)
}

func TestSeat_ReservedTableCanBeSeated(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	_, err := h.tableSvc.Reserve(context.Background(), h.db, tabledomain.ReserveRequest{
		TableID:    table.ID,
		GuestName:  "Ana",
		PartySize:  2,
		ReservedAt: h.clock.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	result, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusSeated, result.Table.Status)
}

func TestUnseat_EmptyOrderIsVoided(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	result, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)

	unseated, err := h.tableSvc.Unseat(context.Background(), h.db, table.ID)
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusAvailable, unseated.Status)
	assert.Nil(t, unseated.CurrentOrderID)

	var order orderdomain.Order
	require.NoError(t, h.db.First(&order, "id = ?", result.OrderID).Error)
	assert.Equal(t, orderdomain.OrderVoided, order.Status)
}

func TestUnseat_RefusedOnceItemsSent(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	result, err := h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.NoError(t, err)

	product := catalogdomain.Product{ID: h.node.Generate(), SKU: "ESP-001", Name: "Espresso", Category: "drinks", UnitPriceCents: 350, IsActive: true, CreatedAt: h.clock.Now(), UpdatedAt: h.clock.Now()}
	require.NoError(t, h.db.Create(&product).Error)

	_, err = h.orderSvc.SendToKitchen(context.Background(), h.db, orderdomain.SendRequest{
		OrderID: &result.OrderID,
		Lines:   []orderdomain.SendLine{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = h.tableSvc.Unseat(context.Background(), h.db, table.ID)
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotEmpty)
}

func TestTableLifecycle_CleanAndBlock(t *testing.T) {
	h := newHarness(t)
	table := h.createTable(t, "T1", 4)

	// available -> blocked -> available
	blocked, err := h.tableSvc.SetBlocked(context.Background(), h.db, table.ID, true)
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusBlocked, blocked.Status)

	_, err = h.tableSvc.Seat(context.Background(), h.db, tabledomain.SeatRequest{TableID: table.ID, GuestCount: 2})
	require.Error(t, err, "blocked tables cannot be seated")

	unblocked, err := h.tableSvc.SetBlocked(context.Background(), h.db, table.ID, false)
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusAvailable, unblocked.Status)

	// needs_cleaning -> available via Clean
	require.NoError(t, h.db.Model(&tabledomain.Table{}).Where("id = ?", table.ID).
		Update("status", tabledomain.StatusNeedsCleaning).Error)
	cleaned, err := h.tableSvc.Clean(context.Background(), h.db, table.ID)
	require.NoError(t, err)
	assert.Equal(t, tabledomain.StatusAvailable, cleaned.Status)

	// Clean is invalid from available.
	_, err = h.tableSvc.Clean(context.Background(), h.db, table.ID)
	assert.ErrorIs(t, err, tabledomain.ErrInvalidTransition)
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t)

	err := h.tableSvc.Create(context.Background(), &tabledomain.Table{Label: "", Capacity: 4})
	assert.ErrorIs(t, err, tabledomain.ErrInvalidLabel)

	err = h.tableSvc.Create(context.Background(), &tabledomain.Table{Label: "T9", Capacity: 0})
	assert.ErrorIs(t, err, tabledomain.ErrInvalidCapacity)
}
