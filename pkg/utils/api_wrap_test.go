package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type codedErr struct{}

func (codedErr) Error() string         { return "E01 rejected" }
func (codedErr) ErrorCode() string     { return "E01170001" }
func (codedErr) PublicMessage() string { return "Card number is invalid" }
func (codedErr) Unwrap() error         { return ErrGatewayRejected }

func renderError(t *testing.T, err error, data interface{}) (int, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("trace_id", "trace-1")
	HandleServiceErrorWithData(c, err, data)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleServiceErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", ErrSubscriptionNotFound), http.StatusNotFound, "NOT_FOUND"},
		{ErrChargeInProgress, http.StatusConflict, "CONFLICT"},
		{ErrGatewayNotConfigured, http.StatusServiceUnavailable, "CONFIG_ERROR"},
		{ErrValidationTimeout, http.StatusBadGateway, "MERCHANT_VALIDATION_ERROR"},
		{WrapDatabase(errors.New("connection reset")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		status, body := renderError(t, tc.err, nil)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.Equal(t, tc.code, body.ErrorCode, tc.err.Error())
		require.True(t, body.Error)
		require.Equal(t, "trace-1", body.TraceID)
	}
}

func TestHandleServiceErrorUsesCodedErrorDetails(t *testing.T) {
	status, body := renderError(t, codedErr{}, gin.H{"transaction_id": "abc"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "E01170001", body.ErrorCode)
	require.Equal(t, "Card number is invalid", body.Message)
	require.Equal(t, map[string]interface{}{"transaction_id": "abc"}, body.Data)
}

func TestHandleServiceErrorDoesNotLeakInternalMessage(t *testing.T) {
	_, body := renderError(t, WrapDatabase(errors.New("pq: password authentication failed")), nil)
	require.Equal(t, "Internal server error", body.Message)
}

func TestAppErrorCarriesFields(t *testing.T) {
	err := &AppError{Kind: ErrGatewayNotConfigured, Code: "CONFIG_ERROR", PublicMsg: "Payment gateway not configured",
		Fields: []string{"GMO_SHOP_ID is not configured."}}
	status, body := renderError(t, err, nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "Payment gateway not configured", body.Message)
	require.Equal(t, []interface{}{"GMO_SHOP_ID is not configured."}, body.Errors)
}
