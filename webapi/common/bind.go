package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BindAndValidate parses the body into T and checks its validate tags.
// On failure the error response is already written and nil is returned.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, PayoutErrorJSON(c, payout.NewValidationError("Invalid request body",
			payout.WithCause(err)))
	}
	if err := validate.Struct(&input); err != nil {
		return nil, PayoutErrorJSON(c, validationError(err))
	}
	return &input, nil
}

// validationError lists the failing fields by their JSON path.
func validationError(err error) *payout.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return payout.NewValidationError(err.Error(), payout.WithCause(err))
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return payout.NewValidationError("Request validation failed",
		payout.WithDetails(map[string]any{"fields": fields}),
		payout.WithCause(err))
}

// fieldPath drops the root type from "Request.destination.iban".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
