package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/pkg/utils"
)

const (
	gatewayUserAgent    = "walletpay/1.0"
	maxGatewayBodyBytes = 1 << 20
)

// GatewayClient speaks the GMO Payment Gateway idPass API.
type GatewayClient interface {
	// EntryTransaction opens a one-time payment and returns AccessID/AccessPass.
	EntryTransaction(ctx context.Context, orderID string, amount int64, currency string) (*GatewayResponse, error)
	// ExecuteTransaction settles an entered payment with an Apple Pay token.
	ExecuteTransaction(ctx context.Context, accessID, accessPass, orderID, token string) (*GatewayResponse, error)
	RegisterMember(ctx context.Context, memberID, memberName string) (*GatewayResponse, error)
	// SaveCard stores the token's card against a member and returns CardID.
	SaveCard(ctx context.Context, memberID, token string, recurring bool) (*GatewayResponse, error)
	ExecuteRecurring(ctx context.Context, orderID, memberID, cardID string, amount int64, currency string) (*GatewayResponse, error)
	// VoidTransaction cancels an entered payment before capture.
	VoidTransaction(ctx context.Context, accessID, accessPass string) (*GatewayResponse, error)
	DeleteCard(ctx context.Context, memberID, cardID string) (*GatewayResponse, error)
	DeleteMember(ctx context.Context, memberID string) (*GatewayResponse, error)
}

type gmoClient struct {
	cfg     config.GatewayConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

// NewGatewayClient builds a client for cfg. A nil httpClient gets one bounded
// by cfg.Timeout.
func NewGatewayClient(cfg config.GatewayConfig, httpClient *http.Client, logger *zap.Logger, metrics *Metrics) GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gmoClient{
		cfg:     cfg,
		http:    httpClient,
		logger:  logger.Named("gmo"),
		metrics: metrics,
	}
}

func (c *gmoClient) EntryTransaction(ctx context.Context, orderID string, amount int64, currency string) (*GatewayResponse, error) {
	return c.call(ctx, "entry", "EntryTranBrandtoken.idPass", url.Values{
		"OrderID":  {orderID},
		"Amount":   {strconv.FormatInt(amount, 10)},
		"Currency": {currency},
	})
}

func (c *gmoClient) ExecuteTransaction(ctx context.Context, accessID, accessPass, orderID, token string) (*GatewayResponse, error) {
	canonical, err := CanonicalToken(token)
	if err != nil {
		c.logger.Error("invalid payment token format", zap.Error(err))
		return nil, NewGatewayError(utils.ErrInvalidTokenFormat, "INVALID_TOKEN_FORMAT", "Invalid payment token format")
	}
	return c.call(ctx, "execute", "ExecTranBrandtoken.idPass", url.Values{
		"AccessID":   {accessID},
		"AccessPass": {accessPass},
		"OrderID":    {orderID},
		"Token":      {canonical},
	})
}

func (c *gmoClient) RegisterMember(ctx context.Context, memberID, memberName string) (*GatewayResponse, error) {
	return c.call(ctx, "register_member", "SaveMember.idPass", url.Values{
		"MemberID":   {memberID},
		"MemberName": {memberName},
	})
}

func (c *gmoClient) SaveCard(ctx context.Context, memberID, token string, recurring bool) (*GatewayResponse, error) {
	seqMode := "0"
	if recurring {
		seqMode = "1"
	}
	return c.call(ctx, "save_card", "SaveCard.idPass", url.Values{
		"MemberID": {memberID},
		"Token":    {token},
		"SeqMode":  {seqMode},
	})
}

func (c *gmoClient) ExecuteRecurring(ctx context.Context, orderID, memberID, cardID string, amount int64, currency string) (*GatewayResponse, error) {
	return c.call(ctx, "execute_recurring", "ExecTran.idPass", url.Values{
		"OrderID":  {orderID},
		"MemberID": {memberID},
		"CardID":   {cardID},
		"Amount":   {strconv.FormatInt(amount, 10)},
		"Currency": {currency},
	})
}

func (c *gmoClient) VoidTransaction(ctx context.Context, accessID, accessPass string) (*GatewayResponse, error) {
	return c.call(ctx, "void", "AlterTran.idPass", url.Values{
		"AccessID":   {accessID},
		"AccessPass": {accessPass},
		"JobCd":      {"VOID"},
	})
}

func (c *gmoClient) DeleteCard(ctx context.Context, memberID, cardID string) (*GatewayResponse, error) {
	return c.call(ctx, "delete_card", "DeleteCard.idPass", url.Values{
		"MemberID": {memberID},
		"CardSeq":  {cardID},
	})
}

func (c *gmoClient) DeleteMember(ctx context.Context, memberID string) (*GatewayResponse, error) {
	return c.call(ctx, "delete_member", "DeleteMember.idPass", url.Values{
		"MemberID": {memberID},
	})
}

func (c *gmoClient) call(ctx context.Context, operation, endpoint string, form url.Values) (*GatewayResponse, error) {
	start := time.Now()
	resp, err := c.do(ctx, operation, endpoint, form)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "failure"
	case resp.Ambiguous:
		outcome = "ambiguous"
	}
	c.metrics.observeGateway(operation, outcome, time.Since(start))
	return resp, err
}

func (c *gmoClient) do(ctx context.Context, operation, endpoint string, form url.Values) (*GatewayResponse, error) {
	log := c.logger.With(zap.String("operation", operation), zap.String("endpoint", endpoint))

	if c.cfg.ShopID == "" || c.cfg.ShopPass == "" {
		log.Error("gateway credentials not configured")
		return nil, NewGatewayError(utils.ErrGatewayConfig, "CONFIG_ERROR", "Payment gateway credentials not configured")
	}
	if c.cfg.APIEndpoint == "" {
		log.Error("gateway endpoint not configured")
		return nil, NewGatewayError(utils.ErrGatewayConfig, "CONFIG_ERROR", "Payment gateway endpoint not configured")
	}

	form.Set("ShopID", c.cfg.ShopID)
	form.Set("ShopPass", c.cfg.ShopPass)

	target := strings.TrimRight(c.cfg.APIEndpoint, "/") + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("build gateway request", zap.Error(err))
		return nil, NewGatewayError(utils.ErrGatewayUnexpected, "UNEXPECTED_ERROR", fmt.Sprintf("Unexpected error: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", gatewayUserAgent)

	res, err := c.http.Do(req)
	if err != nil {
		gwErr := transportError(err)
		log.Error("gateway request failed", zap.String("code", gwErr.Code), zap.Error(err))
		return nil, gwErr
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxGatewayBodyBytes))
	if err != nil {
		log.Error("read gateway response", zap.Error(err))
		return nil, transportError(err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		log.Error("gateway http error", zap.Int("http_status", res.StatusCode))
		gwErr := NewGatewayError(utils.ErrGatewayHTTP,
			fmt.Sprintf("HTTP_%d", res.StatusCode),
			fmt.Sprintf("Payment gateway HTTP error: %d", res.StatusCode))
		gwErr.HTTPStatus = res.StatusCode
		return nil, gwErr
	}

	fields := parseGatewayBody(string(body))
	class, code, info := classifyResponse(fields)
	switch class {
	case responseFailure:
		log.Error("gateway rejected request", zap.String("code", code), zap.String("info", info))
		gwErr := NewGatewayError(utils.ErrGatewayRejected, code, info)
		gwErr.HTTPStatus = res.StatusCode
		gwErr.Response = fields
		return nil, gwErr
	case responseAmbiguous:
		// No error field and no success marker. Accepted, but logged on its own.
		// TODO: turn into a failure once every idPass endpoint's success fields are listed.
		log.Warn("gateway ambiguous response treated as success", zap.Strings("fields", fieldNames(fields)))
		return &GatewayResponse{Fields: fields, Ambiguous: true}, nil
	}

	log.Info("gateway request succeeded")
	return &GatewayResponse{Fields: fields}, nil
}

func transportError(err error) *GatewayError {
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return NewGatewayError(utils.ErrGatewayTimeout, "TIMEOUT", "Payment gateway request timeout")
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return NewGatewayError(utils.ErrGatewayConnection, "CONNECTION_ERROR", "Payment gateway connection failed")
	default:
		return NewGatewayError(utils.ErrGatewayRequest, "REQUEST_ERROR", fmt.Sprintf("Payment gateway request failed: %v", err))
	}
}

// CanonicalToken checks that token is a JSON document and re-encodes it
// compactly. Numbers keep their original text.
func CanonicalToken(token string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(token))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	if dec.More() {
		return "", errors.New("trailing data after token")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
