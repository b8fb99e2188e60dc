package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"walletpay/internal/models/request_models"
	"walletpay/internal/services"
	"walletpay/pkg/utils"
	"walletpay/pkg/validation"
)

type MerchantController struct {
	merchantService services.MerchantService
}

func NewMerchantController(merchantService services.MerchantService) *MerchantController {
	return &MerchantController{merchantService: merchantService}
}

// ConfigStatus godoc
// @Summary Configuration status
// @Description Validates GMO PG and Apple Pay settings. Secrets are never echoed.
// @Tags Merchant
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/payments/config/status [get]
func (m *MerchantController) ConfigStatus(c *gin.Context) {
	utils.RespondSuccess(c, m.merchantService.ConfigStatus(), "Configuration status")
}

// MerchantSession godoc
// @Summary Merchant readiness
// @Tags Merchant
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/payments/merchant-session [get]
func (m *MerchantController) MerchantSession(c *gin.Context) {
	info, err := m.merchantService.MerchantSession()
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, info, "Merchant configured")
}

// ValidateMerchant godoc
// @Summary Validate an Apple Pay merchant session
// @Description Exchanges the validationURL from onvalidatemerchant for a merchant session
// @Tags Merchant
// @Accept json
// @Produce json
// @Param request body request_models.ValidateMerchantRequest true "Validation URL"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/payments/validate-merchant [post]
func (m *MerchantController) ValidateMerchant(c *gin.Context) {
	var req request_models.ValidateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, validation.FromBindError(err))
		return
	}

	session, err := m.merchantService.ValidateMerchant(c.Request.Context(), req.ValidationURL)
	if err != nil {
		var verr *services.MerchantValidationError
		if errors.As(err, &verr) && len(verr.Troubleshooting) > 0 {
			utils.HandleServiceErrorWithData(c, err, gin.H{"troubleshooting": verr.Troubleshooting})
			return
		}
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, session, "Merchant validated")
}

// OneTimeSession godoc
// @Summary One-time payment readiness
// @Tags OneTime
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/payments/onetime/session [post]
func (m *MerchantController) OneTimeSession(c *gin.Context) {
	session, err := m.merchantService.OneTimeSession()
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, session, "Ready for payment")
}
