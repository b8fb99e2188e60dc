package controllers

import (
	"github.com/gin-gonic/gin"

	"walletpay/internal/models/request_models"
	"walletpay/internal/services"
	"walletpay/pkg/utils"
	"walletpay/pkg/validation"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentController struct {
	transactionService services.TransactionService
}

func NewPaymentController(transactionService services.TransactionService) *PaymentController {
	return &PaymentController{
		transactionService: transactionService,
	}
}

// ProcessOneTime godoc
// @Summary Process a one-time Apple Pay payment
// @Description Runs entry and execute against GMO PG; a failed execute is voided
// @Tags OneTime
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays the stored outcome for a repeated key; a failed or cancelled outcome replays with its original error status"
// @Param request body request_models.OneTimePaymentRequest true "Payment"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/payments/onetime/process [post]
func (p *PaymentController) ProcessOneTime(c *gin.Context) {
	var req request_models.OneTimePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, validation.FromBindError(err))
		return
	}

	resp, err := p.transactionService.ProcessPayment(c.Request.Context(), req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		if resp != nil {
			utils.HandleServiceErrorWithData(c, err, resp)
			return
		}
		utils.HandleServiceError(c, err)
		return
	}

	message := "Payment completed"
	if resp.Replayed {
		message = "Payment replayed"
	}
	utils.RespondSuccess(c, resp, message)
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags OneTime
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/payments/transactions/{id} [get]
func (p *PaymentController) GetTransaction(c *gin.Context) {
	txn, err := p.transactionService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Transaction retrieved")
}
