package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/clock"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
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
	Repo  discountdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  discountdomain.Repository
}

func NewService(p Params) discountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("discount.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, def *discountdomain.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	now := s.clock.Now()
	def.ID = s.genID.Generate()
	def.IsActive = true
	def.CreatedAt = now
	def.UpdatedAt = now
	return s.repo.Insert(ctx, s.db, def)
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]discountdomain.Definition, error) {
	return s.repo.List(ctx, s.db, onlyActive)
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*discountdomain.Definition, error) {
	def, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, discountdomain.ErrNotFound
	}
	return def, nil
}
