package needsanalysis

import (
	"github.com/smallbiznis/academy/internal/needsanalysis/repository"
	"github.com/smallbiznis/academy/internal/needsanalysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("needsanalysis.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
