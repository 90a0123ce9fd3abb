package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide returns a stateless repository; callers pass the db or tx of
// their unit of work per call.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repository) List(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.Product, error) {
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if req.Category != "" {
		stmt = stmt.Where("category = ?", req.Category)
	}
	if req.OnlyActive {
		stmt = stmt.Where("is_active = ?", true)
	}

	var products []domain.Product
	err := stmt.Order("category ASC, name ASC").Find(&products).Error
	return products, err
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
