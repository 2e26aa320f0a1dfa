// Package webhook receives provider callbacks and feeds them to the
// payout service.
package webhook

import (
	"errors"

	"github.com/amirasaad/stealthmoney/pkg/provider"
	payoutsvc "github.com/amirasaad/stealthmoney/pkg/service/payout"
	"github.com/amirasaad/stealthmoney/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// StripeHandler verifies a Stripe webhook and applies the payout status it
// carries. Events that are not about payouts, or about payouts this
// service never created, are acknowledged so Stripe stops redelivering.
func StripeHandler(wh provider.Webhook, svc *payoutsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("Stripe-Signature")
		if signature == "" {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, common.CodeInvalidWebhook,
				"Missing Stripe-Signature header")
		}
		payload := c.Body()
		if len(payload) == 0 {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, common.CodeInvalidWebhook,
				"Empty request body")
		}

		report, err := wh.ParseWebhook(payload, signature)
		switch {
		case errors.Is(err, provider.ErrUnhandledWebhook):
			log.Debugf("Ignoring webhook: %v", err)
			return c.SendStatus(fiber.StatusOK)
		case err != nil:
			log.Warnf("Rejected webhook: %v", err)
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, common.CodeInvalidWebhook,
				"Invalid webhook")
		}

		if err := svc.HandleProviderEvent(c.UserContext(), report); err != nil {
			if errors.Is(err, payoutsvc.ErrNotFound) {
				log.Warnf("Webhook for unknown payout %s", report.ID)
				return c.SendStatus(fiber.StatusOK)
			}
			log.Errorf("Failed to apply webhook for payout %s: %v", report.ID, err)
			return common.ErrorJSON(c, err)
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// StripeRoutes registers the Stripe webhook endpoint.
func StripeRoutes(app *fiber.App, wh provider.Webhook, svc *payoutsvc.Service) {
	app.Post("/webhooks/stripe", StripeHandler(wh, svc))
}
