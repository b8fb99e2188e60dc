package response_models

import (
	"encoding/json"

	"walletpay/internal/config"
)

type ConfigStatusResponse = config.ValidationReport

type MerchantSessionInfoResponse struct {
	MerchantID string `json:"merchant_id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

// ValidateMerchantResponse carries Apple's merchant session verbatim.
type ValidateMerchantResponse struct {
	MerchantSession json.RawMessage `json:"merchantSession"`
	MerchantID      string          `json:"merchant_id"`
}

type OneTimeSessionResponse struct {
	MerchantID        string   `json:"merchant_id"`
	Status            string   `json:"status"`
	GatewayConfigured bool     `json:"gmo_pg_configured"`
	Warnings          []string `json:"warnings"`
}
