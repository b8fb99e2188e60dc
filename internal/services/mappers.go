package services

import (
	"walletpay/internal/models/db_models"
	"walletpay/internal/models/response_models"
	"walletpay/pkg/utils"
)

func toTransactionResponse(t *db_models.Transaction) response_models.TransactionResponse {
	return response_models.TransactionResponse{
		TransactionID:  t.ID.String(),
		Amount:         t.Amount.String(),
		Currency:       t.Currency,
		Status:         string(t.Status),
		GatewayOrderID: t.GatewayOrderID,
		ErrorCode:      t.ErrorCode,
		ErrorMessage:   t.ErrorMessage,
		CreatedAt:      utils.FormatRFC3339(t.CreatedAt),
		UpdatedAt:      utils.FormatRFC3339(t.UpdatedAt),
	}
}

func toSubscriptionResponse(s *db_models.Subscription) response_models.SubscriptionResponse {
	return response_models.SubscriptionResponse{
		SubscriptionID:  s.ID.String(),
		Amount:          s.Amount.String(),
		Currency:        s.Currency,
		Status:          string(s.Status),
		BillingCycle:    string(s.BillingCycle),
		NextBillingDate: utils.FormatRFC3339Ptr(s.NextBillingDate),
		LastBillingDate: utils.FormatRFC3339Ptr(s.LastBillingDate),
		CreatedAt:       utils.FormatRFC3339(s.CreatedAt),
		UpdatedAt:       utils.FormatRFC3339(s.UpdatedAt),
	}
}

func checkPage(page, pageSize int) error {
	if page < 1 {
		return utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return utils.ErrInvalidPageSize
	}
	return nil
}
