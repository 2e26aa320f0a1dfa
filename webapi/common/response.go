// Package common holds the response envelopes and request binding shared
// by the HTTP handlers.
package common

import (
	"errors"
	"fmt"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	payoutsvc "github.com/amirasaad/stealthmoney/pkg/service/payout"
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of successful responses.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody describes a failed request. Message is safe to show to users.
type ErrorBody struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Retryable  bool           `json:"retryable"`
	RetryAfter *int           `json:"retryAfter,omitempty"`
}

// ErrorResponse is the envelope of failed responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

const (
	CodeNotFound       = "NOT_FOUND"
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeTooManyReqs    = "TOO_MANY_REQUESTS"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeInvalidWebhook = "INVALID_WEBHOOK"
)

// SuccessResponseJSON writes data in the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON writes a plain error in the failure envelope.
func ErrorResponseJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// PayoutErrorJSON writes a typed payout error with the status of its code.
func PayoutErrorJSON(c *fiber.Ctx, e *payout.Error) error {
	if e.RetryAfter != nil {
		c.Set(fiber.HeaderRetryAfter, fmt.Sprint(*e.RetryAfter))
	}
	return c.Status(StatusFor(e.Code)).JSON(ErrorResponse{Error: ErrorBody{
		Code:       string(e.Code),
		Message:    e.UserMessage,
		Details:    e.Details,
		Retryable:  e.Retryable,
		RetryAfter: e.RetryAfter,
	}})
}

// ErrorJSON picks the response for err: typed payout errors keep their
// code, unknown payouts are 404 and fiber errors keep their status.
func ErrorJSON(c *fiber.Ctx, err error) error {
	if e, ok := payout.AsError(err); ok {
		return PayoutErrorJSON(c, e)
	}
	if errors.Is(err, payoutsvc.ErrNotFound) {
		return ErrorResponseJSON(c, fiber.StatusNotFound, CodeNotFound, "Payout not found")
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponseJSON(c, fe.Code, codeForStatus(fe.Code), fe.Message)
	}
	return ErrorResponseJSON(c, fiber.StatusInternalServerError, CodeInternalError, "Internal Server Error")
}

// StatusFor maps a payout error code onto an HTTP status.
func StatusFor(code payout.Code) int {
	switch code {
	case payout.CodeValidation, payout.CodeInvalidBankDetails:
		return fiber.StatusBadRequest
	case payout.CodeCardDeclined, payout.CodeInsufficientFunds:
		return fiber.StatusPaymentRequired
	case payout.CodeAuthentication:
		return fiber.StatusBadGateway
	case payout.CodeWalletNotFound:
		return fiber.StatusNotFound
	case payout.CodeComplianceHold:
		return fiber.StatusConflict
	case payout.CodeRateLimited:
		return fiber.StatusTooManyRequests
	case payout.CodeBankRejected:
		return fiber.StatusBadGateway
	case payout.CodeNetwork, payout.CodeServiceUnavailable:
		return fiber.StatusServiceUnavailable
	case payout.CodeTimeout:
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusTooManyRequests:
		return CodeTooManyReqs
	}
	if status < fiber.StatusInternalServerError {
		return CodeBadRequest
	}
	return CodeInternalError
}
