package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	"github.com/smallbiznis/tably/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
}

func NewService(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, product *catalogdomain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	now := s.clock.Now()
	product.ID = s.genID.Generate()
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now
	return s.repo.Insert(ctx, s.db, product)
}

func (s *Service) List(ctx context.Context, req catalogdomain.ListRequest) ([]catalogdomain.Product, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Product, error) {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return product, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if product == nil {
		return catalogdomain.ErrNotFound
	}
	return s.repo.SetActive(ctx, s.db, id, false)
}
