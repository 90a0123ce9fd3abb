package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindOpenByTable(ctx context.Context, db *gorm.DB, tableID snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("table_id = ? AND status = ?", tableID, domain.OrderOpen).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.OrderStatus) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []domain.OrderStatus, to domain.OrderStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}

	result := db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []*domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(items).Error
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) CountItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

func (r *repo) TransitionItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID, from []domain.ItemStatus, updates map[string]any) (bool, error) {
	result := db.WithContext(ctx).Model(&domain.OrderItem{}).
		Where("id = ? AND status IN ? AND voided = ? AND comped = ?", itemID, from, false, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) UpdateItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID, updates map[string]any) error {
	return db.WithContext(ctx).Model(&domain.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repo) InsertDiscount(ctx context.Context, db *gorm.DB, application *domain.DiscountApplication) error {
	return db.WithContext(ctx).Create(application).Error
}

func (r *repo) FindActiveDiscount(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*domain.DiscountApplication, error) {
	var application domain.DiscountApplication
	err := db.WithContext(ctx).
		Where("order_item_id = ? AND removed_at IS NULL", itemID).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (r *repo) RemoveDiscount(ctx context.Context, db *gorm.DB, applicationID snowflake.ID, removedAt time.Time) error {
	return db.WithContext(ctx).Model(&domain.DiscountApplication{}).
		Where("id = ? AND removed_at IS NULL", applicationID).
		Update("removed_at", removedAt).Error
}

func (r *repo) FindVoidReason(ctx context.Context, db *gorm.DB, code string) (*domain.VoidReason, error) {
	var reason domain.VoidReason
	err := db.WithContext(ctx).Where("code = ?", code).First(&reason).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reason, nil
}
