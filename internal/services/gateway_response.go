package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"walletpay/pkg/utils"
)

// Terminal status tokens the gateway reports for a settled payment.
var successStatuses = map[string]bool{
	"CAPTURE": true,
	"AUTH":    true,
	"SUCCESS": true,
}

var (
	errorCodeKeys = []string{"ErrCode", "ErrorCode", "error_code"}
	errorInfoKeys = []string{"ErrInfo", "ErrorInfo", "error_info"}
)

// Fields that never leave the process.
var secretFields = map[string]bool{
	"ShopID":     true,
	"ShopPass":   true,
	"AccessPass": true,
	"Token":      true,
}

// GatewayResponse is a parsed key=value gateway response.
type GatewayResponse struct {
	Fields map[string]string
	// Ambiguous is set when the response carried neither an error field nor a
	// success marker and was accepted leniently.
	Ambiguous bool
}

func (r *GatewayResponse) get(key string) string {
	if r == nil {
		return ""
	}
	return r.Fields[key]
}

func (r *GatewayResponse) AccessID() string   { return r.get("AccessID") }
func (r *GatewayResponse) AccessPass() string { return r.get("AccessPass") }
func (r *GatewayResponse) CardID() string     { return r.get("CardID") }
func (r *GatewayResponse) Status() string     { return r.get("Status") }

// HasStatus reports whether a Status field is present at all.
func (r *GatewayResponse) HasStatus() bool {
	if r == nil {
		return false
	}
	_, ok := r.Fields["Status"]
	return ok
}

// Snapshot renders the response for storage with credentials removed.
func (r *GatewayResponse) Snapshot() datatypes.JSON {
	if r == nil {
		return nil
	}
	return snapshotFields(r.Fields)
}

func snapshotFields(fields map[string]string) datatypes.JSON {
	if len(fields) == 0 {
		return nil
	}
	clean := make(map[string]string, len(fields))
	for k, v := range fields {
		if !secretFields[k] {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// parseGatewayBody reads the line oriented key=value body. Pairs on one line
// may also be joined with '&'.
func parseGatewayBody(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		for _, pair := range strings.Split(strings.TrimSpace(line), "&") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			if key = strings.TrimSpace(key); key != "" {
				fields[key] = strings.TrimSpace(value)
			}
		}
	}
	return fields
}

type responseClass int

const (
	responseFailure responseClass = iota
	responseSuccess
	responseAmbiguous
)

func firstField(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// classifyResponse applies the gateway's success rules. Any error field or
// Status=FAILURE is a failure. An AccessID, a CardID or a terminal status is a
// success. Anything else is ambiguous and is accepted as a success by the
// caller.
func classifyResponse(fields map[string]string) (responseClass, string, string) {
	code := firstField(fields, errorCodeKeys)
	info := firstField(fields, errorInfoKeys)

	if code != "" || info != "" || fields["Status"] == "FAILURE" {
		if code == "" {
			code = "UNKNOWN_ERROR"
		}
		if info == "" {
			info = fields["ErrorMessage"]
		}
		if info == "" {
			info = "Unknown error from payment gateway"
		}
		return responseFailure, code, info
	}

	if _, ok := fields["AccessID"]; ok {
		return responseSuccess, "", ""
	}
	if _, ok := fields["CardID"]; ok {
		return responseSuccess, "", ""
	}
	if successStatuses[fields["Status"]] {
		return responseSuccess, "", ""
	}
	return responseAmbiguous, "", ""
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GatewayError is a failed gateway call. It unwraps to one of the
// utils.ErrGateway* kinds.
type GatewayError struct {
	Code       string
	Info       string
	HTTPStatus int
	Response   map[string]string
	kind       error
}

// NewGatewayError builds a GatewayError of the given kind.
func NewGatewayError(kind error, code, info string) *GatewayError {
	return &GatewayError{kind: kind, Code: code, Info: info}
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gmo: %s: %s", e.Code, e.Info)
}

func (e *GatewayError) Unwrap() error         { return e.kind }
func (e *GatewayError) ErrorCode() string     { return e.Code }
func (e *GatewayError) PublicMessage() string { return e.Info }

// Snapshot renders the failing response, if any, for storage.
func (e *GatewayError) Snapshot() datatypes.JSON {
	return snapshotFields(e.Response)
}

var _ utils.CodedError = (*GatewayError)(nil)
