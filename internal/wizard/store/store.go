package store

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/config"
	"github.com/smallbiznis/academy/internal/ratelimit"
	"github.com/smallbiznis/academy/internal/wizard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config       config.Config
	WizardConfig *config.WizardConfigHolder
	Clock        clock.Clock
	Log          *zap.Logger
	Client       *redis.Client     `optional:"true"`
	Locker       *ratelimit.Locker `optional:"true"`
}

// New picks the backend named by WIZARD_STORE.
func New(p Params) domain.Store {
	ttl := func() time.Duration { return p.WizardConfig.Get().StateTTL }

	if p.Config.WizardStore == config.WizardStoreRedis && p.Client != nil && p.Locker != nil {
		p.Log.Info("wizard store ready", zap.String("backend", config.WizardStoreRedis))
		return NewRedis(p.Client, p.Locker, p.Clock, ttl)
	}
	p.Log.Info("wizard store ready", zap.String("backend", config.WizardStoreMemory))
	return NewMemory(p.Clock, ttl)
}
