package merchant_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/api/controllers"
	"walletpay/internal/config"
	"walletpay/internal/services"
)

var Module = fx.Provide(
	provideMerchantValidator,
	provideMerchantService,
	controllers.NewMerchantController,
)

func provideMerchantValidator(cfg *config.Config, logger *zap.Logger, metrics *services.Metrics) services.MerchantValidator {
	return services.NewMerchantValidator(cfg.ApplePay, cfg.IsProduction(), logger, metrics)
}

func provideMerchantService(cfg *config.Config, validator services.MerchantValidator) services.MerchantService {
	return services.NewMerchantService(cfg, validator)
}
