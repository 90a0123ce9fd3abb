package service

import (
	"context"
	"time"

	reportdomain "github.com/smallbiznis/tably/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) reportdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("report.service"),
	}
}

func (s *Service) Daily(ctx context.Context, date time.Time) (*reportdomain.DailyReport, error) {
	if date.IsZero() {
		return nil, reportdomain.ErrInvalidDate
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)

	report := &reportdomain.DailyReport{Date: start}

	var totals struct {
		OrdersClosed  int64
		SubtotalCents int64
		TaxCents      int64
		ServiceCents  int64
		DiscountCents int64
		TotalCents    int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS orders_closed,
			COALESCE(SUM(subtotal_cents), 0) AS subtotal_cents,
			COALESCE(SUM(tax_cents), 0) AS tax_cents,
			COALESCE(SUM(service_cents), 0) AS service_cents,
			COALESCE(SUM(discount_cents), 0) AS discount_cents,
			COALESCE(SUM(total_cents), 0) AS total_cents
		FROM orders
		WHERE status = 'closed' AND closed_at >= ? AND closed_at < ?
	`, start, end).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	report.OrdersClosed = totals.OrdersClosed
	report.SubtotalCents = totals.SubtotalCents
	report.TaxCents = totals.TaxCents
	report.ServiceCents = totals.ServiceCents
	report.DiscountCents = totals.DiscountCents
	report.TotalCents = totals.TotalCents

	var adjustments struct {
		VoidedItems int64
		CompedItems int64
		CompedCents int64
	}
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN oi.voided THEN 1 ELSE 0 END), 0) AS voided_items,
			COALESCE(SUM(CASE WHEN oi.comped THEN 1 ELSE 0 END), 0) AS comped_items,
			COALESCE(SUM(CASE WHEN oi.comped THEN oi.quantity * oi.unit_price_cents ELSE 0 END), 0) AS comped_cents
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'closed' AND o.closed_at >= ? AND o.closed_at < ?
	`, start, end).Scan(&adjustments).Error
	if err != nil {
		return nil, err
	}
	report.VoidedItems = adjustments.VoidedItems
	report.CompedItems = adjustments.CompedItems
	report.CompedCents = adjustments.CompedCents

	var methods []reportdomain.MethodBreakdown
	err = s.db.WithContext(ctx).Raw(`
		SELECT method, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS amount_cents
		FROM payments
		WHERE created_at >= ? AND created_at < ?
		GROUP BY method
		ORDER BY method ASC
	`, start, end).Scan(&methods).Error
	if err != nil {
		return nil, err
	}
	report.PaymentMethods = methods

	return report, nil
}
