package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/pkg/utils"
)

const (
	defaultInitiativeContext = "localhost"
	maxSessionBodyBytes      = 1 << 20
)

// MerchantValidator exchanges an Apple Pay validation URL for a merchant
// session using the merchant identity certificate.
type MerchantValidator interface {
	ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error)
}

// MerchantValidationError unwraps to a utils.ErrValidation* or certificate kind.
type MerchantValidationError struct {
	Code            string
	Message         string
	HTTPStatus      int
	Troubleshooting []string
	kind            error
}

func newValidationError(kind error, code, message string) *MerchantValidationError {
	return &MerchantValidationError{kind: kind, Code: code, Message: message, Troubleshooting: hintsFor(kind)}
}

func (e *MerchantValidationError) Error() string {
	return fmt.Sprintf("apple pay: %s: %s", e.Code, e.Message)
}

func (e *MerchantValidationError) Unwrap() error         { return e.kind }
func (e *MerchantValidationError) ErrorCode() string     { return e.Code }
func (e *MerchantValidationError) PublicMessage() string { return e.Message }

func hintsFor(kind error) []string {
	switch {
	case errors.Is(kind, utils.ErrCertificatesNotConfigured):
		return []string{"Set APPLE_MERCHANT_CERT_PATH and APPLE_MERCHANT_KEY_PATH, or APPLE_MERCHANT_P12_PATH"}
	case errors.Is(kind, utils.ErrCertificateFilesNotFound):
		return []string{"Check that the merchant certificate paths exist and are readable by the service"}
	case errors.Is(kind, utils.ErrCertificateInvalid):
		return []string{"Re-export the Merchant Identity Certificate and its private key", "Check APPLE_MERCHANT_P12_PASSWORD"}
	case errors.Is(kind, utils.ErrValidationHTTP):
		return []string{"Verify the domain is registered for the merchant id in the Apple Developer portal", "Check that the certificate belongs to APPLE_MERCHANT_ID"}
	case errors.Is(kind, utils.ErrValidationTimeout), errors.Is(kind, utils.ErrValidationConnection):
		return []string{"Check outbound HTTPS access to apple-pay-gateway.apple.com"}
	case errors.Is(kind, utils.ErrValidationURLRejected):
		return []string{"Pass the validationURL from the onvalidatemerchant event unchanged"}
	}
	return nil
}

type appleMerchantValidator struct {
	cfg        config.ApplePayConfig
	production bool
	logger     *zap.Logger
	metrics    *Metrics
}

func NewMerchantValidator(cfg config.ApplePayConfig, production bool, logger *zap.Logger, metrics *Metrics) MerchantValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appleMerchantValidator{
		cfg:        cfg,
		production: production,
		logger:     logger.Named("apple_pay"),
		metrics:    metrics,
	}
}

func (v *appleMerchantValidator) ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error) {
	session, err := v.validate(ctx, validationURL)
	if err != nil {
		v.metrics.incMerchantValidation("failure")
		return nil, err
	}
	v.metrics.incMerchantValidation("success")
	return session, nil
}

func (v *appleMerchantValidator) validate(ctx context.Context, validationURL string) (json.RawMessage, error) {
	target, err := v.checkURL(validationURL)
	if err != nil {
		return nil, err
	}

	if v.cfg.MerchantID == "" {
		return nil, newValidationError(utils.ErrApplePayNotConfigured, "CONFIG_ERROR", "Apple Pay merchant id not configured")
	}
	if !v.cfg.HasCertificate() {
		return nil, newValidationError(utils.ErrCertificatesNotConfigured, "CERTIFICATES_NOT_CONFIGURED", "Merchant identity certificate not configured")
	}
	cert, err := config.LoadMerchantCertificate(v.cfg)
	if err != nil {
		v.logger.Error("load merchant certificate", zap.Error(err))
		if errors.Is(err, utils.ErrCertificateFilesNotFound) {
			return nil, newValidationError(utils.ErrCertificateFilesNotFound, "CERTIFICATE_FILES_NOT_FOUND", "Merchant identity certificate files not found")
		}
		return nil, newValidationError(utils.ErrCertificateInvalid, "CERTIFICATE_INVALID", "Merchant identity certificate could not be loaded")
	}

	initiativeContext := target.Query().Get("initiativeContext")
	if initiativeContext == "" {
		v.logger.Warn("validation url has no initiativeContext, using localhost")
		initiativeContext = defaultInitiativeContext
	}

	payload, err := json.Marshal(map[string]string{
		"merchantIdentifier": v.cfg.MerchantID,
		"displayName":        v.cfg.DisplayName,
		"initiative":         "web",
		"initiativeContext":  initiativeContext,
	})
	if err != nil {
		return nil, newValidationError(utils.ErrValidationUnexpected, "UNEXPECTED_ERROR", fmt.Sprintf("Unexpected error: %v", err))
	}

	session, err := v.post(ctx, target.String(), payload, cert, false)
	if err != nil && isTLSError(err) && v.insecureFallbackAllowed() {
		v.logger.Warn("merchant validation tls failed, retrying without certificate verification", zap.Error(err))
		session, err = v.post(ctx, target.String(), payload, cert, true)
	}
	if err != nil {
		var verr *MerchantValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, classifyValidationTransport(err)
	}

	v.logger.Info("merchant validated", zap.String("host", target.Host))
	return session, nil
}

func (v *appleMerchantValidator) insecureFallbackAllowed() bool {
	return v.cfg.AllowInsecureFallback && !v.production
}

// checkURL accepts only https URLs on an allowed host suffix. An empty suffix
// list accepts any host.
func (v *appleMerchantValidator) checkURL(raw string) (*url.URL, error) {
	reject := func(msg string) error {
		return newValidationError(utils.ErrValidationURLRejected, "INVALID_VALIDATION_URL", msg)
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, reject("validation_url is not a valid URL")
	}
	if u.Scheme != "https" {
		return nil, reject("validation_url must use https")
	}
	if len(v.cfg.ValidationHostSuffixes) == 0 {
		return u, nil
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range v.cfg.ValidationHostSuffixes {
		suffix = strings.ToLower(suffix)
		if host == strings.TrimPrefix(suffix, ".") || strings.HasSuffix(host, "."+strings.TrimPrefix(suffix, ".")) {
			return u, nil
		}
	}
	return nil, reject("validation_url host is not allowed")
}

func (v *appleMerchantValidator) post(ctx context.Context, target string, payload []byte, cert tls.Certificate, insecure bool) (json.RawMessage, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			Certificates:       []tls.Certificate{cert},
			RootCAs:            v.cfg.RootCAs,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec
		},
	}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: v.cfg.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, newValidationError(utils.ErrValidationUnexpected, "UNEXPECTED_ERROR", fmt.Sprintf("Unexpected error: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxSessionBodyBytes))
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= http.StatusBadRequest {
		v.logger.Error("merchant validation http error", zap.Int("http_status", res.StatusCode))
		verr := newValidationError(utils.ErrValidationHTTP,
			fmt.Sprintf("HTTP_%d", res.StatusCode),
			fmt.Sprintf("Apple Pay validation failed with HTTP %d", res.StatusCode))
		verr.HTTPStatus = res.StatusCode
		return nil, verr
	}
	if !json.Valid(body) {
		return nil, newValidationError(utils.ErrValidationJSON, "JSON_ERROR", "Apple Pay returned an invalid merchant session")
	}
	return json.RawMessage(body), nil
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

func classifyValidationTransport(err error) *MerchantValidationError {
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return newValidationError(utils.ErrValidationTimeout, "TIMEOUT", "Apple Pay validation request timed out")
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return newValidationError(utils.ErrValidationConnection, "CONNECTION_ERROR", "Could not connect to Apple Pay validation server")
	case isTLSError(err):
		return newValidationError(utils.ErrValidationRequest, "TLS_ERROR", "TLS handshake with Apple Pay validation server failed")
	default:
		return newValidationError(utils.ErrValidationRequest, "REQUEST_ERROR", fmt.Sprintf("Apple Pay validation request failed: %v", err))
	}
}
