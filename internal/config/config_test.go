package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := FromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 15*time.Second, cfg.ApplePay.Timeout)
	assert.Equal(t, []string{".apple.com"}, cfg.ApplePay.ValidationHostSuffixes)
	assert.False(t, cfg.ApplePay.AllowInsecureFallback)
	assert.Equal(t, 2*time.Minute, cfg.ChargeLeaseTTL)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10000, cfg.IdempotencyMaxKeys)
	assert.False(t, cfg.IsProduction())
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("GMO_SHOP_ID", "tshop0001")
	t.Setenv("GMO_API_ENDPOINT", "https://pt01.mul-pay.jp/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")
	t.Setenv("APPLE_ALLOW_INSECURE_FALLBACK", "true")
	t.Setenv("IDEMPOTENCY_MAX_KEYS", "500")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := FromViper(v)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "tshop0001", cfg.Gateway.ShopID)
	assert.Equal(t, "https://pt01.mul-pay.jp", cfg.Gateway.APIEndpoint)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ApplePay.AllowInsecureFallback)
	assert.Equal(t, 500, cfg.IdempotencyMaxKeys)
}
