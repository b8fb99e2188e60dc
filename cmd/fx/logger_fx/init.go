package logger_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"walletpay/internal/config"
)

var Module = fx.Provide(provideLogger)

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", "walletpay"))
	zap.ReplaceGlobals(logger)

	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}
