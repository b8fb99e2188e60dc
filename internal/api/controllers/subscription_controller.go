package controllers

import (
	"github.com/gin-gonic/gin"

	"walletpay/internal/models/request_models"
	"walletpay/internal/services"
	"walletpay/pkg/utils"
	"walletpay/pkg/validation"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionController(subscriptionService services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

// Setup godoc
// @Summary Set up a recurring payment
// @Description Registers a GMO member, saves the Apple Pay card and takes the first charge
// @Tags Recurring
// @Accept json
// @Produce json
// @Param request body request_models.RecurringSetupRequest true "Subscription"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/payments/recurring/setup [post]
func (s *SubscriptionController) Setup(c *gin.Context) {
	var req request_models.RecurringSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, validation.FromBindError(err))
		return
	}

	resp, err := s.subscriptionService.Setup(c.Request.Context(), req)
	if err != nil {
		if resp != nil {
			utils.HandleServiceErrorWithData(c, err, resp)
			return
		}
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription created")
}

// Charge godoc
// @Summary Charge a subscription
// @Tags Recurring
// @Accept json
// @Produce json
// @Param request body request_models.RecurringChargeRequest true "Charge"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/payments/recurring/charge [post]
func (s *SubscriptionController) Charge(c *gin.Context) {
	var req request_models.RecurringChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, validation.FromBindError(err))
		return
	}

	resp, err := s.subscriptionService.Charge(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription charged")
}

// GetSubscription godoc
// @Summary Get a subscription
// @Tags Recurring
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/payments/subscriptions/{id} [get]
func (s *SubscriptionController) GetSubscription(c *gin.Context) {
	sub, err := s.subscriptionService.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sub, "Subscription retrieved")
}
