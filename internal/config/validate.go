package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"walletpay/pkg/utils"
)

const certificateExpiryWarning = 30 * 24 * time.Hour

// SectionReport is the validation outcome for one integration. Configured only
// ever carries booleans and the endpoint, never a secret.
type SectionReport struct {
	Valid      bool           `json:"valid"`
	Errors     []string       `json:"errors"`
	Warnings   []string       `json:"warnings"`
	Configured map[string]any `json:"configured"`
}

type ValidationReport struct {
	AllValid   bool              `json:"all_valid"`
	Gateway    SectionReport     `json:"gmo_pg"`
	ApplePay   SectionReport     `json:"apple_pay"`
	SetupGuide map[string]string `json:"setup_guide"`
}

func newSection() SectionReport {
	return SectionReport{Errors: []string{}, Warnings: []string{}, Configured: map[string]any{}}
}

func (s *SectionReport) finish() SectionReport {
	s.Valid = len(s.Errors) == 0
	return *s
}

// Validate runs every configuration check. It is called once at startup and
// again for each GET /config/status.
func Validate(cfg *Config, now time.Time) ValidationReport {
	gw := ValidateGateway(cfg.Gateway)
	ap := ValidateApplePay(cfg.ApplePay, cfg.IsProduction(), now)
	return ValidationReport{
		AllValid: gw.Valid && ap.Valid,
		Gateway:  gw,
		ApplePay: ap,
		SetupGuide: map[string]string{
			"gmo_pg":    "Set GMO_SHOP_ID, GMO_SHOP_PASS and GMO_API_ENDPOINT",
			"apple_pay": "Set APPLE_MERCHANT_ID and either APPLE_MERCHANT_CERT_PATH/APPLE_MERCHANT_KEY_PATH or APPLE_MERCHANT_P12_PATH",
			"env_file":  "Copy env.example to .env and configure your credentials",
		},
	}
}

func ValidateGateway(cfg GatewayConfig) SectionReport {
	s := newSection()

	if cfg.ShopID == "" {
		s.Errors = append(s.Errors, "GMO_SHOP_ID is not configured. Set it in .env file.")
	}
	if cfg.ShopPass == "" {
		s.Errors = append(s.Errors, "GMO_SHOP_PASS is not configured. Set it in .env file.")
	}

	endpoint := cfg.APIEndpoint
	switch {
	case endpoint == "":
		s.Errors = append(s.Errors, "GMO_API_ENDPOINT is not configured. Set it in .env file.")
	case strings.Contains(endpoint, "pt01.mul-pay.jp") || strings.Contains(endpoint, "pt01.mul-pay.com"):
		s.Warnings = append(s.Warnings, "Using test endpoint (pt01.mul-pay.jp). This is expected for development.")
	case strings.Contains(endpoint, "p01.mul-pay.jp") || strings.Contains(endpoint, "p01.mul-pay.com"):
		s.Warnings = append(s.Warnings, "Using production endpoint (p01.mul-pay.jp). Ensure all credentials are production-grade.")
	}

	s.Configured["shop_id_set"] = cfg.ShopID != ""
	s.Configured["shop_pass_set"] = cfg.ShopPass != ""
	s.Configured["api_endpoint"] = endpoint
	return s.finish()
}

// ValidateApplePayMerchant checks only the merchant identifier, which is all the
// payment flows need; certificates matter for merchant validation alone.
func ValidateApplePayMerchant(cfg ApplePayConfig) SectionReport {
	s := newSection()
	checkMerchantID(&s, cfg)
	return s.finish()
}

func checkMerchantID(s *SectionReport, cfg ApplePayConfig) {
	if cfg.MerchantID == "" {
		s.Errors = append(s.Errors, "APPLE_MERCHANT_ID is not configured. Set it in .env file.")
	} else if !strings.HasPrefix(cfg.MerchantID, "merchant.") {
		s.Warnings = append(s.Warnings, fmt.Sprintf(`APPLE_MERCHANT_ID should start with "merchant." (current: %s)`, cfg.MerchantID))
	}
	s.Configured["merchant_id_set"] = cfg.MerchantID != ""
}

func ValidateApplePay(cfg ApplePayConfig, production bool, now time.Time) SectionReport {
	s := newSection()
	checkMerchantID(&s, cfg)

	cert, err := LoadMerchantCertificate(cfg)
	switch {
	case errors.Is(err, utils.ErrCertificatesNotConfigured):
		s.Errors = append(s.Errors, "Merchant identity certificate is not configured. Set APPLE_MERCHANT_CERT_PATH and APPLE_MERCHANT_KEY_PATH, or APPLE_MERCHANT_P12_PATH.")
	case errors.Is(err, utils.ErrCertificateFilesNotFound):
		s.Errors = append(s.Errors, "Merchant identity certificate file not found or not readable.")
	case err != nil:
		s.Errors = append(s.Errors, "Merchant identity certificate could not be loaded. Check the file format and password.")
	case cert.Leaf != nil:
		notAfter := cert.Leaf.NotAfter
		s.Configured["certificate_expires_at"] = utils.FormatRFC3339(notAfter)
		if now.After(notAfter) {
			s.Errors = append(s.Errors, fmt.Sprintf("Merchant identity certificate expired on %s.", utils.FormatRFC3339(notAfter)))
		} else if notAfter.Sub(now) < certificateExpiryWarning {
			s.Warnings = append(s.Warnings, fmt.Sprintf("Merchant identity certificate expires on %s.", utils.FormatRFC3339(notAfter)))
		}
	}
	s.Configured["certificate_set"] = cfg.HasCertificate()

	if cfg.AllowInsecureFallback {
		if production {
			s.Errors = append(s.Errors, "APPLE_ALLOW_INSECURE_FALLBACK must not be enabled in production.")
		} else {
			s.Warnings = append(s.Warnings, "APPLE_ALLOW_INSECURE_FALLBACK is enabled: merchant validation may retry without TLS verification.")
		}
	}
	return s.finish()
}
