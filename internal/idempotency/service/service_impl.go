package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/idempotency/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errLostRace signals that another writer persisted the (kind, key) record
// between our existence check and insert. The current transaction is rolled
// back and the stored result is replayed instead.
var errLostRace = errors.New("idempotency_record_raced")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Locker domain.Locker
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	locker domain.Locker
	repo   domain.Repository
}

func NewService(p Params) domain.Executor {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("idempotency.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		locker: p.Locker,
		repo:   p.Repo,
	}
}

func (s *Service) Execute(ctx context.Context, kind, key, fingerprint string, work domain.Work) (domain.Outcome, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.runBare(ctx, work)
	}

	release, err := s.locker.Acquire(ctx, kind+":"+key)
	if err != nil {
		return domain.Outcome{}, timeoutOr(ctx, err)
	}
	defer release()

	record, err := s.repo.Find(ctx, s.db, kind, key)
	if err != nil {
		return domain.Outcome{}, err
	}
	if record != nil {
		return s.replay(record, kind, fingerprint)
	}

	var out domain.Outcome
	var workErr error
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, workErr = work(ctx, tx)
		if workErr != nil && out.Status == 0 {
			// Non-terminal failure: roll back, leave the key unresolved.
			return workErr
		}

		inserted, err := s.repo.Insert(ctx, tx, &domain.Record{
			ID:          s.genID.Generate(),
			Kind:        kind,
			Key:         key,
			Fingerprint: fingerprint,
			Status:      out.Status,
			Body:        out.Body,
			CreatedAt:   s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errLostRace
		}
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, errLostRace) {
			record, err := s.repo.Find(ctx, s.db, kind, key)
			if err != nil {
				return domain.Outcome{}, err
			}
			if record != nil {
				return s.replay(record, kind, fingerprint)
			}
			return domain.Outcome{}, txErr
		}
		return domain.Outcome{}, timeoutOr(ctx, txErr)
	}
	return out, workErr
}

func (s *Service) runBare(ctx context.Context, work domain.Work) (domain.Outcome, error) {
	var out domain.Outcome
	var workErr error
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, workErr = work(ctx, tx)
		if workErr != nil && out.Status == 0 {
			return workErr
		}
		return nil
	})
	if txErr != nil {
		return domain.Outcome{}, timeoutOr(ctx, txErr)
	}
	return out, workErr
}

func (s *Service) replay(record *domain.Record, kind, fingerprint string) (domain.Outcome, error) {
	if record.Fingerprint != fingerprint {
		s.log.Warn("idempotency key reused with different payload",
			zap.String("kind", kind),
			zap.String("key", record.Key))
		return domain.Outcome{}, domain.ErrKeyReuse
	}
	return domain.Outcome{Status: record.Status, Body: record.Body}, nil
}

func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return err
}
