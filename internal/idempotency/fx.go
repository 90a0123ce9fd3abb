package idempotency

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tably/internal/config"
	"github.com/smallbiznis/tably/internal/idempotency/domain"
	"github.com/smallbiznis/tably/internal/idempotency/repository"
	"github.com/smallbiznis/tably/internal/idempotency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("idempotency.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideLocker),
	fx.Provide(service.NewService),
)

func provideLocker(cfg config.Config) domain.Locker {
	if cfg.RedisAddr == "" {
		return service.NewLocalLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return service.NewRedisLocker(client)
}
