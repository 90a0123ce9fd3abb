package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	paymentdomain "github.com/smallbiznis/tably/internal/payment/domain"
	reportdomain "github.com/smallbiznis/tably/internal/report/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func TestDaily_AggregatesClosedOrders(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zaptest.NewLogger(t)})

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	noon := day.Add(12 * time.Hour)
	nextDay := day.Add(30 * time.Hour)

	closedAt := noon
	makeOrder := func(total int64, closed time.Time) snowflake.ID {
		id := node.Generate()
		require.NoError(t, db.Create(&orderdomain.Order{
			ID: id, Status: orderdomain.OrderClosed,
			SubtotalCents: total, TaxCents: 0, TotalCents: total,
			ClosedAt: &closed, CreatedAt: closed, UpdatedAt: closed,
		}).Error)
		return id
	}

	first := makeOrder(10000, closedAt)
	second := makeOrder(5000, closedAt)
	makeOrder(9999, nextDay) // outside the window

	require.NoError(t, db.Create(&orderdomain.OrderItem{
		ID: node.Generate(), OrderID: first, ProductID: node.Generate(), Name: "Burger",
		Quantity: 1, UnitPriceCents: 10000, Status: orderdomain.ItemServed,
		CreatedAt: noon, UpdatedAt: noon,
	}).Error)
	voided := "wrong_item_entered"
	require.NoError(t, db.Create(&orderdomain.OrderItem{
		ID: node.Generate(), OrderID: first, ProductID: node.Generate(), Name: "Latte",
		Quantity: 1, UnitPriceCents: 520, Status: orderdomain.ItemPending,
		Voided: true, VoidReason: &voided,
		CreatedAt: noon, UpdatedAt: noon,
	}).Error)
	compReason := "spilled"
	require.NoError(t, db.Create(&orderdomain.OrderItem{
		ID: node.Generate(), OrderID: second, ProductID: node.Generate(), Name: "Espresso",
		Quantity: 2, UnitPriceCents: 350, Status: orderdomain.ItemServed,
		Comped: true, CompReason: &compReason,
		CreatedAt: noon, UpdatedAt: noon,
	}).Error)

	require.NoError(t, db.Create(&paymentdomain.Payment{
		ID: node.Generate(), OrderID: first, Method: paymentdomain.MethodCard,
		AmountCents: 10000, ReceivedBy: "c-1", CreatedAt: noon,
	}).Error)
	require.NoError(t, db.Create(&paymentdomain.Payment{
		ID: node.Generate(), OrderID: second, Method: paymentdomain.MethodCash,
		AmountCents: 5000, ReceivedBy: "c-1", CreatedAt: noon,
	}).Error)

	report, err := svc.Daily(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.OrdersClosed)
	assert.Equal(t, int64(15000), report.TotalCents)
	assert.Equal(t, int64(1), report.VoidedItems)
	assert.Equal(t, int64(1), report.CompedItems)
	assert.Equal(t, int64(700), report.CompedCents)

	require.Len(t, report.PaymentMethods, 2)
	byMethod := map[string]reportdomain.MethodBreakdown{}
	for _, row := range report.PaymentMethods {
		byMethod[row.Method] = row
	}
	assert.Equal(t, int64(10000), byMethod["card"].AmountCents)
	assert.Equal(t, int64(5000), byMethod["cash"].AmountCents)
}

func TestDaily_InvalidDate(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	svc := NewService(Params{DB: db, Log: zaptest.NewLogger(t)})

	_, err = svc.Daily(context.Background(), time.Time{})
	assert.ErrorIs(t, err, reportdomain.ErrInvalidDate)
}
