package gateway_fx

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/internal/services"
)

var Module = fx.Provide(provideGatewayClient)

func provideGatewayClient(cfg *config.Config, logger *zap.Logger, metrics *services.Metrics) services.GatewayClient {
	httpClient := &http.Client{Timeout: cfg.Gateway.Timeout}
	return services.NewGatewayClient(cfg.Gateway, httpClient, logger, metrics)
}
