package payout

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Failure is the decoded shape of a raw provider failure: a transport code,
// a free-form message, and the HTTP response with its structured API error.
type Failure struct {
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Response *FailureResponse `json:"response,omitempty"`
	Err      error            `json:"-"`
}

// FailureResponse is the HTTP part of a Failure.
type FailureResponse struct {
	Status int          `json:"status,omitempty"`
	Data   *FailureData `json:"data,omitempty"`
}

// FailureData is the structured API error carried by a response body.
type FailureData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (f *Failure) Error() string {
	switch {
	case f.Message != "":
		return f.Message
	case f.Response != nil && f.Response.Data != nil && f.Response.Data.Message != "":
		return f.Response.Data.Message
	case f.Response != nil && f.Response.Status != 0:
		return fmt.Sprintf("request failed with status %d", f.Response.Status)
	case f.Code != "":
		return f.Code
	case f.Err != nil:
		return f.Err.Error()
	}
	return "unknown failure"
}

// Unwrap returns the transport error, if any.
func (f *Failure) Unwrap() error {
	return f.Err
}

var networkCodes = map[string]struct{}{
	"ECONNREFUSED": {},
	"ENOTFOUND":    {},
	"ECONNRESET":   {},
	"EAI_AGAIN":    {},
	"EHOSTUNREACH": {},
	"ENETUNREACH":  {},
	"EPIPE":        {},
}

var timeoutCodes = map[string]struct{}{
	"ETIMEDOUT":       {},
	"ESOCKETTIMEDOUT": {},
	"ECONNABORTED":    {},
}

var apiCodes = map[string]Code{
	"payment_declined":       CodeCardDeclined,
	"card_declined":          CodeCardDeclined,
	"do_not_honor":           CodeCardDeclined,
	"wallet_not_found":       CodeWalletNotFound,
	"invalid_iban":           CodeInvalidBankDetails,
	"invalid_bic":            CodeInvalidBankDetails,
	"invalid_bank_account":   CodeInvalidBankDetails,
	"bank_account_invalid":   CodeInvalidBankDetails,
	"invalid_account_number": CodeInvalidBankDetails,
	"bank_rejected":          CodeBankRejected,
	"compliance_hold":        CodeComplianceHold,
	"insufficient_funds":     CodeInsufficientFunds,
	"balance_insufficient":   CodeInsufficientFunds,
	"rate_limit":             CodeRateLimited,
}

// view flattens any supported failure into the fields the rules look at.
type view struct {
	code       string
	message    string
	timeout    bool
	status     int
	apiCode    string
	apiMessage string
}

func decode(err error) view {
	var v view
	var f *Failure
	if errors.As(err, &f) {
		v.code = f.Code
		v.message = f.Message
		if f.Response != nil {
			v.status = f.Response.Status
			if f.Response.Data != nil {
				v.apiCode = strings.ToLower(strings.TrimSpace(f.Response.Data.Code))
				v.apiMessage = f.Response.Data.Message
			}
		}
		if f.Err != nil && v.code == "" {
			inner := decode(f.Err)
			v.code = inner.code
			v.timeout = inner.timeout
		}
		return v
	}

	v.message = err.Error()
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		v.code = "ECONNREFUSED"
	case errors.Is(err, syscall.ECONNRESET):
		v.code = "ECONNRESET"
	case errors.Is(err, syscall.EHOSTUNREACH):
		v.code = "EHOSTUNREACH"
	case errors.Is(err, syscall.ENETUNREACH):
		v.code = "ENETUNREACH"
	case errors.Is(err, syscall.EPIPE):
		v.code = "EPIPE"
	case errors.Is(err, syscall.ETIMEDOUT):
		v.code = "ETIMEDOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		if dnsErr.IsTemporary {
			v.code = "EAI_AGAIN"
		} else {
			v.code = "ENOTFOUND"
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		v.timeout = true
	}
	return v
}

// Classify maps a raw failure onto a typed Error. It is total and pure: every
// non-nil error yields exactly one Error, and the same input always yields
// the same code, retryability and retry hint. Typed errors pass through.
//
// Rules run in order: transport codes, message content, structured API
// code, HTTP status, then the retryable UNKNOWN_ERROR fallback.
func Classify(err error, operation string) *Error {
	if err == nil {
		return nil
	}
	if typed, ok := AsError(err); ok {
		return typed
	}

	v := decode(err)
	details := map[string]any{"operation": operation}
	if v.status != 0 {
		details["status"] = v.status
	}
	if v.apiCode != "" {
		details["apiCode"] = v.apiCode
	}
	if v.code != "" {
		details["errorCode"] = v.code
	}

	raw := v.message
	if raw == "" {
		raw = v.apiMessage
	}
	if raw == "" {
		raw = err.Error()
	}
	msg := fmt.Sprintf("%s failed: %s", operation, raw)
	build := func(code Code) *Error {
		return NewError(code, msg, WithCause(err), WithDetails(details))
	}

	if _, ok := networkCodes[v.code]; ok {
		return build(CodeNetwork)
	}
	if _, ok := timeoutCodes[v.code]; ok {
		v.timeout = true
	}

	lower := strings.ToLower(v.message)
	if v.timeout || strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") {
		return build(CodeTimeout)
	}
	if strings.Contains(lower, "invalid") && v.apiCode == "" {
		return build(CodeValidation)
	}

	if code, ok := apiCodes[v.apiCode]; ok {
		return build(code)
	}

	switch {
	case v.status == 429:
		return build(CodeRateLimited)
	case v.status == 401 || v.status == 403:
		return build(CodeAuthentication)
	case v.status >= 500:
		return build(CodeServiceUnavailable)
	}

	return build(CodeUnknown)
}
