package migration

import (
	"context"

	"github.com/smallbiznis/academy/internal/config"
	"github.com/smallbiznis/academy/internal/seed"
	"github.com/smallbiznis/academy/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Config config.Config
	Log    *zap.Logger
	Seeder *seed.Seeder
}

var Module = fx.Module("migrations",
	fx.Provide(seed.New),
	fx.Invoke(func(p Params) error {
		log := p.Log.Named("migration")

		if p.Config.DBType == db.TypePostgres {
			sqlDB, err := p.DB.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := AutoMigrate(p.DB); err != nil {
			return err
		}
		log.Info("schema ready", zap.String("db_type", p.Config.DBType))

		if !p.Config.SeedDemoData {
			return nil
		}
		return p.Seeder.EnsureDemo(context.Background())
	}),
)
