package wizard

import (
	"github.com/smallbiznis/academy/internal/notify"
	"github.com/smallbiznis/academy/internal/wizard/service"
	"github.com/smallbiznis/academy/internal/wizard/store"
	"go.uber.org/fx"
)

var Module = fx.Module("wizard.service",
	fx.Provide(notify.NewLocalizer),
	fx.Provide(store.New),
	fx.Provide(service.New),
	fx.Provide(service.Provide),
)
