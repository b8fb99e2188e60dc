package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"walletpay/internal/config"
)

// ValidConfig returns a configuration that passes the gateway and merchant
// id checks. No certificate is configured.
func ValidConfig() *config.Config {
	return &config.Config{
		AppEnv:             config.EnvDevelopment,
		Port:               "8000",
		IdempotencyTTL:     time.Hour,
		IdempotencyMaxKeys: 100,
		ChargeLeaseTTL:     2 * time.Minute,
		Gateway: config.GatewayConfig{
			ShopID:      "tshop00000001",
			ShopPass:    "shoppass",
			APIEndpoint: "https://pt01.mul-pay.jp/payment",
			Timeout:     5 * time.Second,
		},
		ApplePay: config.ApplePayConfig{
			MerchantID:  "merchant.com.example.test",
			DisplayName: "Test Shop",
			Timeout:     5 * time.Second,
		},
	}
}

// ValidToken is a minimal Apple Pay payment token.
const ValidToken = `{"paymentData":{"version":"EC_v1","data":"abc"},"paymentMethod":{"network":"Visa"},"transactionIdentifier":"T1"}`

// Amount parses s for request fields that take an optional amount.
func Amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
