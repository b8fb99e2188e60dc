package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	Error     bool        `json:"error"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Error:   true,
		Message: message,
		TraceID: traceID(c),
	})
}

// RespondValidationError reports field-level input errors.
func RespondValidationError(c *gin.Context, fields interface{}) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Status:    "error",
		Code:      http.StatusBadRequest,
		Error:     true,
		ErrorCode: "VALIDATION_ERROR",
		Message:   "Invalid request payload",
		TraceID:   traceID(c),
		Errors:    fields,
	})
}

func HandleServiceError(c *gin.Context, err error) {
	HandleServiceErrorWithData(c, err, nil)
}

// HandleServiceErrorWithData renders err as an error envelope. data carries the
// record the failed flow left behind (a failed transaction, a cancelled
// subscription) so callers still learn its id and final status.
func HandleServiceErrorWithData(c *gin.Context, err error, data interface{}) {
	status, code, message := classifyError(err)

	var fields interface{}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Fields != nil {
		fields = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("trace_id", traceID(c)),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.JSON(status, APIResponse{
		Status:    "error",
		Code:      status,
		Error:     true,
		ErrorCode: code,
		Message:   message,
		TraceID:   traceID(c),
		Data:      data,
		Errors:    fields,
	})
}

func classifyError(err error) (int, string, string) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"

	switch {
	case errors.Is(err, ErrDatabaseError):
		return status, code, message
	case errors.Is(err, ErrInvalidPage):
		status, code, message = http.StatusBadRequest, "INVALID_PAGE", "Page must be greater than 0"
	case errors.Is(err, ErrInvalidPageSize):
		status, code, message = http.StatusBadRequest, "INVALID_PAGE_SIZE", "Page size must be between 1 and 100"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTokenFormat), errors.Is(err, ErrValidationURLRejected):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload"
	case errors.Is(err, ErrTransactionNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Transaction not found"
	case errors.Is(err, ErrSubscriptionNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Subscription not found"
	case errors.Is(err, ErrSubscriptionNotActive):
		status, code, message = http.StatusBadRequest, "SUBSCRIPTION_NOT_ACTIVE", "Subscription is not active, cannot process charge"
	case errors.Is(err, ErrChargeInProgress), errors.Is(err, ErrRequestInProgress), errors.Is(err, ErrStaleRecord):
		status, code, message = http.StatusConflict, "CONFLICT", "Request conflicts with an operation in progress"
	case errors.Is(err, ErrGatewayNotConfigured), errors.Is(err, ErrApplePayNotConfigured),
		errors.Is(err, ErrCertificatesNotConfigured), errors.Is(err, ErrCertificateFilesNotFound),
		errors.Is(err, ErrCertificateInvalid), errors.Is(err, ErrGatewayConfig):
		status, code, message = http.StatusServiceUnavailable, "CONFIG_ERROR", "Payment service not configured"
	case errors.Is(err, ErrMissingGatewayReference):
		status, code, message = http.StatusInternalServerError, "GATEWAY_REFERENCE_MISSING", "Payment gateway returned an incomplete response"
	case errors.Is(err, ErrGatewayTimeout), errors.Is(err, ErrGatewayConnection), errors.Is(err, ErrGatewayHTTP),
		errors.Is(err, ErrGatewayRequest), errors.Is(err, ErrGatewayUnexpected), errors.Is(err, ErrGatewayRejected):
		status, code, message = http.StatusBadRequest, "GATEWAY_ERROR", "Payment gateway error"
	case errors.Is(err, ErrValidationTimeout), errors.Is(err, ErrValidationConnection), errors.Is(err, ErrValidationHTTP),
		errors.Is(err, ErrValidationRequest), errors.Is(err, ErrValidationJSON), errors.Is(err, ErrValidationUnexpected):
		status, code, message = http.StatusBadGateway, "MERCHANT_VALIDATION_ERROR", "Merchant validation failed"
	default:
		return status, code, message
	}

	var coded CodedError
	if errors.As(err, &coded) {
		if c := coded.ErrorCode(); c != "" {
			code = c
		}
		if m := coded.PublicMessage(); m != "" {
			message = m
		}
	}
	return status, code, message
}
