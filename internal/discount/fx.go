package discount

import (
	"github.com/smallbiznis/tably/internal/discount/repository"
	"github.com/smallbiznis/tably/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
