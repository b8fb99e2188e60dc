package services

import (
	"context"
	"strings"
	"time"

	"walletpay/internal/config"
	"walletpay/internal/models/response_models"
	"walletpay/pkg/utils"
)

type MerchantService interface {
	ConfigStatus() config.ValidationReport
	MerchantSession() (*response_models.MerchantSessionInfoResponse, error)
	ValidateMerchant(ctx context.Context, validationURL string) (*response_models.ValidateMerchantResponse, error)
	OneTimeSession() (*response_models.OneTimeSessionResponse, error)
}

type merchantService struct {
	cfg       *config.Config
	validator MerchantValidator
	now       func() time.Time
}

func NewMerchantService(cfg *config.Config, validator MerchantValidator) MerchantService {
	return &merchantService{
		cfg:       cfg,
		validator: validator,
		now:       utils.NowUTC,
	}
}

func (s *merchantService) ConfigStatus() config.ValidationReport {
	return config.Validate(s.cfg, s.now())
}

func (s *merchantService) MerchantSession() (*response_models.MerchantSessionInfoResponse, error) {
	if err := applePayReady(s.cfg.ApplePay); err != nil {
		return nil, err
	}
	return &response_models.MerchantSessionInfoResponse{
		MerchantID: s.cfg.ApplePay.MerchantID,
		Message:    "Merchant session is created per payment through POST /validate-merchant",
		Status:     "configured",
	}, nil
}

func (s *merchantService) ValidateMerchant(ctx context.Context, validationURL string) (*response_models.ValidateMerchantResponse, error) {
	if strings.TrimSpace(validationURL) == "" {
		return nil, &utils.AppError{
			Kind:      utils.ErrInvalidInput,
			Code:      "VALIDATION_ERROR",
			PublicMsg: "validation_url is required",
		}
	}
	if err := applePayReady(s.cfg.ApplePay); err != nil {
		return nil, err
	}

	session, err := s.validator.ValidateMerchant(ctx, validationURL)
	if err != nil {
		return nil, err
	}
	return &response_models.ValidateMerchantResponse{
		MerchantSession: session,
		MerchantID:      s.cfg.ApplePay.MerchantID,
	}, nil
}

func (s *merchantService) OneTimeSession() (*response_models.OneTimeSessionResponse, error) {
	apple := config.ValidateApplePayMerchant(s.cfg.ApplePay)
	if !apple.Valid {
		return nil, notConfigured(utils.ErrApplePayNotConfigured, "Apple Pay not configured", apple.Errors)
	}
	gateway := config.ValidateGateway(s.cfg.Gateway)
	if !gateway.Valid {
		return nil, notConfigured(utils.ErrGatewayNotConfigured, "GMO Payment Gateway not configured", gateway.Errors)
	}

	warnings := append([]string{}, apple.Warnings...)
	return &response_models.OneTimeSessionResponse{
		MerchantID:        s.cfg.ApplePay.MerchantID,
		Status:            "ready",
		GatewayConfigured: gateway.Valid,
		Warnings:          append(warnings, gateway.Warnings...),
	}, nil
}

func applePayReady(cfg config.ApplePayConfig) error {
	report := config.ValidateApplePayMerchant(cfg)
	if !report.Valid {
		return notConfigured(utils.ErrApplePayNotConfigured, "Apple Pay not configured", report.Errors)
	}
	return nil
}

func gatewayReady(cfg config.GatewayConfig) error {
	report := config.ValidateGateway(cfg)
	if !report.Valid {
		return notConfigured(utils.ErrGatewayNotConfigured, "Payment gateway not configured", report.Errors)
	}
	return nil
}

func notConfigured(kind error, msg string, problems []string) error {
	return &utils.AppError{
		Kind:      kind,
		Code:      "CONFIG_ERROR",
		PublicMsg: msg,
		Fields:    problems,
	}
}
