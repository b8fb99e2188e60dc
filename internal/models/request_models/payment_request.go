package request_models

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "JPY"

type OneTimePaymentRequest struct {
	Token    string           `json:"token" binding:"required,min=10,json"`
	Amount   *decimal.Decimal `json:"amount" binding:"required,amount_positive,amount_max,amount_scale"`
	Currency string           `json:"currency" binding:"omitempty,currency_code"`
}

func (r *OneTimePaymentRequest) Normalize() {
	r.Currency = normalizeCurrency(r.Currency)
}

type RecurringSetupRequest struct {
	Token        string           `json:"token" binding:"required,min=10,json"`
	Amount       *decimal.Decimal `json:"amount" binding:"required,amount_positive,amount_max,amount_scale"`
	Currency     string           `json:"currency" binding:"omitempty,currency_code"`
	BillingCycle string           `json:"billing_cycle" binding:"required,billing_cycle"`
}

func (r *RecurringSetupRequest) Normalize() {
	r.Currency = normalizeCurrency(r.Currency)
	r.BillingCycle = strings.ToLower(strings.TrimSpace(r.BillingCycle))
}

type RecurringChargeRequest struct {
	SubscriptionID string           `json:"subscription_id" binding:"required,uuid"`
	Amount         *decimal.Decimal `json:"amount" binding:"required,amount_positive,amount_max,amount_scale"`
}

type ValidateMerchantRequest struct {
	ValidationURL string `json:"validation_url" binding:"required"`
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
