package memcache_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"walletpay/internal/config"
	mem "walletpay/pkg/memcache"
)

var Module = fx.Provide(provideIdempotencyStore)

func provideIdempotencyStore(cfg *config.Config, logger *zap.Logger) mem.IdempotencyStore {
	logger.Info("idempotency store ready",
		zap.Int("max_keys", cfg.IdempotencyMaxKeys),
		zap.Duration("ttl", cfg.IdempotencyTTL),
	)
	return mem.NewIdempotencyKeys(cfg.IdempotencyMaxKeys, cfg.IdempotencyTTL)
}
