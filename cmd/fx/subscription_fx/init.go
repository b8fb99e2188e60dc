package subscription_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/api/controllers"
	"walletpay/internal/config"
	"walletpay/internal/repositories"
	"walletpay/internal/services"
)

var Module = fx.Provide(
	provideSubscriptionService, provideSubscriptionController,
)

func provideSubscriptionService(
	cfg *config.Config,
	repo repositories.SubscriptionRepository,
	gateway services.GatewayClient,
	logger *zap.Logger,
	metrics *services.Metrics,
) services.SubscriptionService {
	return services.NewSubscriptionService(cfg, repo, gateway, logger, metrics)
}

func provideSubscriptionController(subscriptionService services.SubscriptionService) *controllers.SubscriptionController {
	return controllers.NewSubscriptionController(subscriptionService)
}
