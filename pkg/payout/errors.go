package payout

import (
	"errors"
	"fmt"
	"maps"
)

// Code identifies the kind of a payout failure. The set is closed.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidBankDetails Code = "INVALID_BANK_DETAILS"
	CodeCardDeclined       Code = "CARD_DECLINED"
	CodeWalletNotFound     Code = "WALLET_NOT_FOUND"
	CodeComplianceHold     Code = "COMPLIANCE_HOLD"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeAuthentication     Code = "API_AUTHENTICATION_FAILED"
	CodeBankRejected       Code = "BANK_REJECTED"
	CodeNetwork            Code = "NETWORK_ERROR"
	CodeTimeout            Code = "PAYMENT_TIMEOUT"
	CodeRateLimited        Code = "API_RATE_LIMITED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

type kind struct {
	retryable   bool
	retryAfter  int
	userMessage string
}

var kinds = map[Code]kind{
	CodeValidation: {
		userMessage: "The payout request is invalid. Please check the details and try again.",
	},
	CodeInvalidBankDetails: {
		userMessage: "The bank account details are invalid. Please verify the IBAN and BIC and try again.",
	},
	CodeCardDeclined: {
		userMessage: "Your payment was declined by the card issuer. Please contact your bank or use a different card.",
	},
	CodeWalletNotFound: {
		userMessage: "The source wallet could not be found.",
	},
	CodeComplianceHold: {
		userMessage: "This transfer is under review for compliance. We will notify you once the review is complete.",
	},
	CodeInsufficientFunds: {
		userMessage: "The source wallet does not have enough funds for this payout.",
	},
	CodeAuthentication: {
		userMessage: "We could not authenticate with the payment provider. Please contact support.",
	},
	CodeBankRejected: {
		retryable:   true,
		userMessage: "The recipient bank rejected the transfer. We will retry it shortly.",
	},
	CodeNetwork: {
		retryable:   true,
		retryAfter:  30,
		userMessage: "We are having trouble reaching the payment network. Please try again in a moment.",
	},
	CodeTimeout: {
		retryable:   true,
		userMessage: "The payment provider took too long to respond. Please try again.",
	},
	CodeRateLimited: {
		retryable:   true,
		retryAfter:  60,
		userMessage: "Too many requests were sent to the payment provider. Please wait a minute and try again.",
	},
	CodeServiceUnavailable: {
		retryable:   true,
		retryAfter:  30,
		userMessage: "The payment service is temporarily unavailable. Please try again later.",
	},
	CodeUnknown: {
		retryable:   true,
		userMessage: "An unexpected error occurred while processing your payout. Please try again later.",
	},
}

// Codes returns every known code.
func Codes() []Code {
	out := make([]Code, 0, len(kinds))
	for c := range kinds {
		out = append(out, c)
	}
	return out
}

// Retryable reports the default retryability of a code.
func (c Code) Retryable() bool {
	return kinds[c].retryable
}

// UserMessage returns the default user-facing message of a code.
func (c Code) UserMessage() string {
	if k, ok := kinds[c]; ok {
		return k.userMessage
	}
	return kinds[CodeUnknown].userMessage
}

// Error is the typed failure surfaced to payout callers.
// Values are built by NewError and never mutated afterwards.
type Error struct {
	Code        Code
	Message     string
	UserMessage string
	Retryable   bool
	// RetryAfter is a suggested delay in seconds, nil when there is no hint.
	RetryAfter *int
	Details    map[string]any
	Cause      error
}

// ErrorOption customises an Error under construction.
type ErrorOption func(*Error)

// WithCause records the original failure.
func WithCause(err error) ErrorOption {
	return func(e *Error) { e.Cause = err }
}

// WithDetails attaches structured details. The map is copied.
func WithDetails(details map[string]any) ErrorOption {
	return func(e *Error) {
		if len(details) == 0 {
			return
		}
		if e.Details == nil {
			e.Details = make(map[string]any, len(details))
		}
		maps.Copy(e.Details, details)
	}
}

// WithUserMessage overrides the default user-facing message of the code.
func WithUserMessage(msg string) ErrorOption {
	return func(e *Error) { e.UserMessage = msg }
}

// WithRetryAfter overrides the suggested retry delay in seconds.
func WithRetryAfter(seconds int) ErrorOption {
	return func(e *Error) { e.RetryAfter = &seconds }
}

// NewError builds a typed error with the defaults of its code.
// Unknown codes are coerced to CodeUnknown.
func NewError(code Code, message string, opts ...ErrorOption) *Error {
	k, ok := kinds[code]
	if !ok {
		code = CodeUnknown
		k = kinds[CodeUnknown]
	}
	e := &Error{
		Code:        code,
		Message:     message,
		UserMessage: k.userMessage,
		Retryable:   k.retryable,
	}
	if k.retryAfter > 0 {
		ra := k.retryAfter
		e.RetryAfter = &ra
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewValidationError reports malformed input. The message is shown to users as is.
func NewValidationError(message string, opts ...ErrorOption) *Error {
	opts = append([]ErrorOption{WithUserMessage(message)}, opts...)
	return NewError(CodeValidation, message, opts...)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the original failure for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// RetryAfterSeconds returns the retry hint or 0.
func (e *Error) RetryAfterSeconds() int {
	if e.RetryAfter == nil {
		return 0
	}
	return *e.RetryAfter
}

// AsError extracts a typed error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries a typed error of the given code.
func HasCode(err error, code Code) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
