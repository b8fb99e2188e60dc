package config

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv                string
	Port                  string
	PostgresURL           string
	LogLevel              string
	CORSAllowedOrigins    []string
	JWTSecret             string
	DomainAssociationPath string
	IdempotencyTTL        time.Duration
	IdempotencyMaxKeys    int
	ChargeLeaseTTL        time.Duration

	Gateway  GatewayConfig
	ApplePay ApplePayConfig
}

// GatewayConfig holds the GMO Payment Gateway shop credentials.
type GatewayConfig struct {
	ShopID      string
	ShopPass    string
	APIEndpoint string // e.g. https://pt01.mul-pay.jp (test) or https://p01.mul-pay.jp
	Timeout     time.Duration
}

// ApplePayConfig holds the merchant identity used for merchant validation.
// The certificate is either a PEM cert/key pair or a PKCS#12 bundle.
type ApplePayConfig struct {
	MerchantID             string
	DisplayName            string
	CertPath               string
	KeyPath                string
	P12Path                string
	P12Password            string
	Timeout                time.Duration
	ValidationHostSuffixes []string
	AllowInsecureFallback  bool

	// RootCAs overrides the system pool when verifying the validation server.
	RootCAs *x509.CertPool
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GMO_TIMEOUT", "30s")
	v.SetDefault("APPLE_MERCHANT_DISPLAY_NAME", "Apple Pay")
	v.SetDefault("APPLE_VALIDATION_TIMEOUT", "15s")
	v.SetDefault("APPLE_VALIDATION_HOST_SUFFIXES", ".apple.com")
	v.SetDefault("APPLE_ALLOW_INSECURE_FALLBACK", false)
	v.SetDefault("DOMAIN_ASSOCIATION_PATH", ".well-known/apple-developer-merchantid-domain-association")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("IDEMPOTENCY_MAX_KEYS", 10000)
	v.SetDefault("CHARGE_LEASE_TTL", "2m")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v), nil
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppEnv:                strings.ToLower(v.GetString("APP_ENV")),
		Port:                  v.GetString("PORT"),
		PostgresURL:           v.GetString("POSTGRES_URL"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		JWTSecret:             v.GetString("JWT_SECRET"),
		DomainAssociationPath: v.GetString("DOMAIN_ASSOCIATION_PATH"),
		IdempotencyTTL:        v.GetDuration("IDEMPOTENCY_TTL"),
		IdempotencyMaxKeys:    v.GetInt("IDEMPOTENCY_MAX_KEYS"),
		ChargeLeaseTTL:        v.GetDuration("CHARGE_LEASE_TTL"),
		Gateway: GatewayConfig{
			ShopID:      v.GetString("GMO_SHOP_ID"),
			ShopPass:    v.GetString("GMO_SHOP_PASS"),
			APIEndpoint: strings.TrimRight(v.GetString("GMO_API_ENDPOINT"), "/"),
			Timeout:     v.GetDuration("GMO_TIMEOUT"),
		},
		ApplePay: ApplePayConfig{
			MerchantID:             v.GetString("APPLE_MERCHANT_ID"),
			DisplayName:            v.GetString("APPLE_MERCHANT_DISPLAY_NAME"),
			CertPath:               v.GetString("APPLE_MERCHANT_CERT_PATH"),
			KeyPath:                v.GetString("APPLE_MERCHANT_KEY_PATH"),
			P12Path:                v.GetString("APPLE_MERCHANT_P12_PATH"),
			P12Password:            v.GetString("APPLE_MERCHANT_P12_PASSWORD"),
			Timeout:                v.GetDuration("APPLE_VALIDATION_TIMEOUT"),
			ValidationHostSuffixes: splitList(v.GetString("APPLE_VALIDATION_HOST_SUFFIXES")),
			AllowInsecureFallback:  v.GetBool("APPLE_ALLOW_INSECURE_FALLBACK"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
