package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/reqctx"
	"github.com/smallbiznis/tably/internal/staff"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	actorID, actorRole := "system", "system"
	if actor, ok := staff.FromContext(ctx); ok {
		actorID, actorRole = actor.ID, actor.Role
	}

	payload := map[string]any{}
	for key, value := range entry.Metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := reqctx.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	row := auditdomain.AuditLog{
		ID:           s.genID.Generate(),
		ActorID:      actorID,
		ActorRole:    actorRole,
		Action:       action,
		TargetType:   targetType,
		TargetID:     entry.TargetID,
		BeforeStatus: entry.BeforeStatus,
		AfterStatus:  entry.AfterStatus,
		Metadata:     datatypes.JSONMap(payload),
		CreatedAt:    s.clock.Now(),
	}
	if ip := reqctx.IPAddressFromContext(ctx); ip != "" {
		row.IPAddress = &ip
	}
	if ua := reqctx.UserAgentFromContext(ctx); ua != "" {
		row.UserAgent = &ua
	}

	conn := tx
	if conn == nil {
		conn = s.db
	}
	if err := s.repo.Insert(ctx, conn, &row); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return nil, auditdomain.ErrInvalidTimeRange
	}
	return s.repo.List(ctx, s.db, req)
}
