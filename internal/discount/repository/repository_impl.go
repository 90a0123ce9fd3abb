package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/discount/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide returns a stateless repository; callers pass the db or tx of
// their unit of work per call.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, def *domain.Definition) error {
	return db.WithContext(ctx).Create(def).Error
}

func (r *repository) List(ctx context.Context, db *gorm.DB, onlyActive bool) ([]domain.Definition, error) {
	stmt := db.WithContext(ctx).Model(&domain.Definition{})
	if onlyActive {
		stmt = stmt.Where("is_active = ?", true)
	}
	var defs []domain.Definition
	err := stmt.Order("code ASC").Find(&defs).Error
	return defs, err
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Definition, error) {
	var def domain.Definition
	err := db.WithContext(ctx).Where("id = ?", id).First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}
