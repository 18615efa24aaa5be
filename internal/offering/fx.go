package offering

import (
	"github.com/smallbiznis/academy/internal/offering/repository"
	"github.com/smallbiznis/academy/internal/offering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offering.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
