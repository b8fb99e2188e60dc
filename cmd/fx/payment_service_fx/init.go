package payment_service_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/api/controllers"
	"walletpay/internal/config"
	"walletpay/internal/repositories"
	"walletpay/internal/services"
	mem "walletpay/pkg/memcache"
)

var Module = fx.Provide(
	provideTransactionService, providePaymentController,
)

func provideTransactionService(
	cfg *config.Config,
	repo repositories.TransactionRepository,
	gateway services.GatewayClient,
	keys mem.IdempotencyStore,
	logger *zap.Logger,
	metrics *services.Metrics,
) services.TransactionService {
	return services.NewTransactionService(cfg, repo, gateway, keys, logger, metrics)
}

func providePaymentController(transactionService services.TransactionService) *controllers.PaymentController {
	return controllers.NewPaymentController(transactionService)
}
