// Package validate exposes the IBAN, BIC and RUT checks over HTTP.
package validate

import (
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/rut"
	"github.com/amirasaad/stealthmoney/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Request carries the value to check.
type Request struct {
	Value string `json:"value" validate:"required"`
}

// Result reports the verdict and the canonical rendering of the value.
type Result struct {
	Valid     bool   `json:"valid"`
	Formatted string `json:"formatted,omitempty"`
}

func Routes(r fiber.Router) {
	r.Post("/validate/iban", handler(payout.ValidateIBAN, payout.FormatIBAN))
	r.Post("/validate/bic", handler(payout.ValidateBIC, payout.NormalizeBIC))
	r.Post("/validate/rut", handler(rut.Validate, rut.Format))
}

// handler builds an endpoint from a check and a formatter. Invalid values
// are a normal answer, not an error.
// @Summary Validate a bank identifier
// @Tags validation
// @Accept json
// @Produce json
// @Param request body Request true "Value to validate"
// @Success 200 {object} Result
// @Failure 400 {object} common.ErrorResponse "Missing value"
// @Router /api/v1/validate/iban [post]
// @Router /api/v1/validate/bic [post]
// @Router /api/v1/validate/rut [post]
func handler(check func(string) bool, format func(string) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[Request](c)
		if input == nil {
			return err
		}
		res := Result{Valid: check(input.Value)}
		if res.Valid {
			res.Formatted = format(input.Value)
		}
		return c.JSON(res)
	}
}
