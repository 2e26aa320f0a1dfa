package payout

import (
	"github.com/amirasaad/stealthmoney/pkg/payout"
	payoutsvc "github.com/amirasaad/stealthmoney/pkg/service/payout"
	"github.com/amirasaad/stealthmoney/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Routes registers the payout endpoints on r. guard, when non-nil, runs
// before every handler.
//
// Routes:
//   - POST /payouts              : Create a payout to a bank account.
//   - GET  /payouts/:id          : Current status of a payout.
//   - GET  /wallets/:id/payouts  : Latest payouts of a source wallet.
func Routes(r fiber.Router, svc *payoutsvc.Service, guard fiber.Handler) {
	handlers := func(h fiber.Handler) []fiber.Handler {
		if guard == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{guard, h}
	}
	r.Post("/payouts", handlers(CreatePayout(svc))...)
	r.Get("/payouts/:id", handlers(GetPayout(svc))...)
	r.Get("/wallets/:id/payouts", handlers(ListWalletPayouts(svc))...)
}

// CreatePayout returns a Fiber handler that submits a payout.
// An Idempotency-Key header takes precedence over the body field.
// @Summary Create a payout
// @Description Validates the request and sends it to the payout provider. Transient provider failures are retried.
// @Tags payouts
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body payout.Request true "Payout request"
// @Success 201 {object} common.Response "Payout created"
// @Failure 400 {object} common.ErrorResponse "Invalid request"
// @Failure 402 {object} common.ErrorResponse "Payout declined"
// @Failure 429 {object} common.ErrorResponse "Too many requests"
// @Failure 503 {object} common.ErrorResponse "Provider unavailable"
// @Router /api/v1/payouts [post]
// @Security Bearer
func CreatePayout(svc *payoutsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[payout.Request](c)
		if input == nil {
			return err
		}
		if key := c.Get("Idempotency-Key"); key != "" {
			input.IdempotencyKey = key
		}

		res, err := svc.CreatePayout(c.UserContext(), input)
		if err != nil {
			log.Warnf("Payout not created: %v", err)
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payout created", res)
	}
}

// GetPayout returns a Fiber handler reporting the status of a payout.
// @Summary Get payout status
// @Tags payouts
// @Produce json
// @Param id path string true "Payout ID"
// @Success 200 {object} common.Response "Payout status"
// @Failure 404 {object} common.ErrorResponse "Payout not found"
// @Router /api/v1/payouts/{id} [get]
// @Security Bearer
func GetPayout(svc *payoutsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.GetStatus(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payout status", report)
	}
}

// ListWalletPayouts returns a Fiber handler listing the payouts of a wallet.
// @Summary List wallet payouts
// @Tags payouts
// @Produce json
// @Param id path string true "Source wallet ID"
// @Param limit query int false "Maximum number of payouts"
// @Success 200 {object} common.Response "Payouts"
// @Router /api/v1/wallets/{id}/payouts [get]
// @Security Bearer
func ListWalletPayouts(svc *payoutsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultListLimit)
		switch {
		case limit <= 0:
			limit = defaultListLimit
		case limit > maxListLimit:
			limit = maxListLimit
		}
		list, err := svc.ListByWallet(c.UserContext(), c.Params("id"), limit)
		if err != nil {
			log.Errorf("Failed to list payouts: %v", err)
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payouts", list)
	}
}
