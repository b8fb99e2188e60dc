package config_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/pkg/utils"
)

var Module = fx.Options(
	fx.Provide(config.Load),
	fx.Invoke(logStartupReport),
)

// logStartupReport runs the configuration health check once during startup.
// Problems are logged; the service still starts so /config/status can report them.
func logStartupReport(cfg *config.Config, logger *zap.Logger) {
	report := config.Validate(cfg, utils.NowUTC())

	sections := []struct {
		name    string
		section config.SectionReport
	}{
		{"gmo_pg", report.Gateway},
		{"apple_pay", report.ApplePay},
	}
	for _, s := range sections {
		for _, msg := range s.section.Errors {
			logger.Error("configuration error", zap.String("section", s.name), zap.String("detail", msg))
		}
		for _, msg := range s.section.Warnings {
			logger.Warn("configuration warning", zap.String("section", s.name), zap.String("detail", msg))
		}
	}

	if report.AllValid {
		logger.Info("configuration valid", zap.String("env", cfg.AppEnv))
	}
}
