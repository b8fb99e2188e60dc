package utils

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")

	ErrInvalidInput            = errors.New("invalid input")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionNotActive   = errors.New("subscription not active")
	ErrChargeInProgress        = errors.New("charge already in progress")
	ErrRequestInProgress       = errors.New("request already in progress")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrStaleRecord             = errors.New("record was modified concurrently")
	ErrMissingGatewayReference = errors.New("gateway response missing reference")

	ErrGatewayNotConfigured  = errors.New("payment gateway not configured")
	ErrApplePayNotConfigured = errors.New("apple pay not configured")

	ErrCertificatesNotConfigured = errors.New("merchant certificates not configured")
	ErrCertificateFilesNotFound  = errors.New("merchant certificate files not found")
	ErrCertificateInvalid        = errors.New("merchant certificate invalid")
)

// Gateway failure kinds. GatewayError unwraps to exactly one of these.
var (
	ErrGatewayConfig      = errors.New("gateway configuration error")
	ErrGatewayTimeout     = errors.New("gateway timeout")
	ErrGatewayConnection  = errors.New("gateway connection error")
	ErrGatewayHTTP        = errors.New("gateway http error")
	ErrGatewayRequest     = errors.New("gateway request error")
	ErrGatewayUnexpected  = errors.New("gateway unexpected error")
	ErrGatewayRejected    = errors.New("gateway rejected request")
	ErrInvalidTokenFormat = errors.New("invalid payment token format")
)

// Merchant validation failure kinds.
var (
	ErrValidationTimeout     = errors.New("merchant validation timeout")
	ErrValidationConnection  = errors.New("merchant validation connection error")
	ErrValidationHTTP        = errors.New("merchant validation http error")
	ErrValidationRequest     = errors.New("merchant validation request error")
	ErrValidationJSON        = errors.New("merchant validation json error")
	ErrValidationUnexpected  = errors.New("merchant validation unexpected error")
	ErrValidationURLRejected = errors.New("validation url rejected")
)

// CodedError is implemented by errors that carry a machine-readable code and a
// message that is safe to show to API callers.
type CodedError interface {
	error
	ErrorCode() string
	PublicMessage() string
}

// AppError tags an internal error with a sentinel kind and a public message.
type AppError struct {
	Kind      error
	Code      string
	PublicMsg string
	Fields    any
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.PublicMsg, e.Err)
	}
	if e.PublicMsg != "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.PublicMsg)
	}
	return e.Kind.Error()
}

func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func (e *AppError) ErrorCode() string     { return e.Code }
func (e *AppError) PublicMessage() string { return e.PublicMsg }

func NewAppError(kind error, code, publicMsg string) *AppError {
	return &AppError{Kind: kind, Code: code, PublicMsg: publicMsg}
}

// WrapDatabase hides a storage failure behind ErrDatabaseError.
func WrapDatabase(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: ErrDatabaseError, Code: "DATABASE_ERROR", PublicMsg: "Internal server error", Err: err}
}
