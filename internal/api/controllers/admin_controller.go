package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"walletpay/internal/models/request_models"
	"walletpay/internal/services"
	"walletpay/pkg/utils"
)

type AdminController struct {
	transactionService  services.TransactionService
	subscriptionService services.SubscriptionService
}

func NewAdminController(transactionService services.TransactionService, subscriptionService services.SubscriptionService) *AdminController {
	return &AdminController{
		transactionService:  transactionService,
		subscriptionService: subscriptionService,
	}
}

// ListTransactions godoc
// @Summary List transactions
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(10) minimum(1) maximum(100)
// @Param status query string false "Status filter"
// @Param currency query string false "Currency filter"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/payments/admin/transactions [get]
func (a *AdminController) ListTransactions(c *gin.Context) {
	var query request_models.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	page, err := a.transactionService.ListTransactions(c.Request.Context(), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Transactions retrieved")
}

// ListSubscriptions godoc
// @Summary List subscriptions
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(10) minimum(1) maximum(100)
// @Param status query string false "Status filter"
// @Param billing_cycle query string false "Billing cycle filter"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/payments/admin/subscriptions [get]
func (a *AdminController) ListSubscriptions(c *gin.Context) {
	var query request_models.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	page, err := a.subscriptionService.ListSubscriptions(c.Request.Context(), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Subscriptions retrieved")
}
