package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"walletpay/internal/api/controllers"
	"walletpay/internal/config"
	"walletpay/internal/infra"
	"walletpay/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	providePinger,
	provideTransactionRepo,
	provideSubscriptionRepo,
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := infra.Migrate(db); err != nil {
		infra.ClosePostgresql(db, logger)
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db, logger)
			return nil
		},
	})
	return db, nil
}

type gormPinger struct {
	db *gorm.DB
}

func (p gormPinger) PingContext(ctx context.Context) error {
	return infra.Ping(ctx, p.db)
}

func providePinger(db *gorm.DB) controllers.Pinger {
	return gormPinger{db: db}
}

func provideTransactionRepo(db *gorm.DB) repositories.TransactionRepository {
	return repositories.NewTransactionRepository(db)
}

func provideSubscriptionRepo(db *gorm.DB) repositories.SubscriptionRepository {
	return repositories.NewSubscriptionRepository(db)
}
