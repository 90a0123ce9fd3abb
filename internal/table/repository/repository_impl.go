package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/table/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Table, error) {
	var table domain.Table
	err := db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &table, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Table, error) {
	var tables []domain.Table
	err := db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("label ASC").
		Find(&tables).Error
	return tables, err
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, table *domain.Table) error {
	return db.WithContext(ctx).Create(table).Error
}

// Transition is the exclusivity mechanism for seating and every other
// table-state change: one conditional UPDATE, no separate read-then-write.
// The race loser matches zero rows and is reported as false, not an error.
func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from []domain.Status, to domain.Status, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}

	result := db.WithContext(ctx).Model(&domain.Table{}).
		Where("id = ? AND deleted_at IS NULL AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) LinkOrder(ctx context.Context, db *gorm.DB, id, orderID snowflake.ID) error {
	return db.WithContext(ctx).Model(&domain.Table{}).
		Where("id = ?", id).
		Update("current_order_id", orderID).Error
}

func (r *repo) InsertReservation(ctx context.Context, db *gorm.DB, reservation *domain.Reservation) error {
	return db.WithContext(ctx).Create(reservation).Error
}
