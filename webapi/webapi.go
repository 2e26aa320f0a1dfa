// Package webapi wires the HTTP API:
//   - payout: payout creation, status and listing
//   - validate: IBAN, BIC and RUT checks
//   - webhook: provider callbacks
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/middleware"
	"github.com/amirasaad/stealthmoney/webapi/common"
	payoutweb "github.com/amirasaad/stealthmoney/webapi/payout"
	validateweb "github.com/amirasaad/stealthmoney/webapi/validate"
	"github.com/amirasaad/stealthmoney/webapi/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	_ "github.com/amirasaad/stealthmoney/docs"
)

// SetupApp builds the Fiber app with all routes and middleware.
func SetupApp(a *app.App) (*fiber.App, error) {
	cfg := a.Config
	fiberApp := fiber.New(fiber.Config{
		AppName: "stealthmoney",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ErrorJSON(c, err)
		},
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Stealth Money API is running! 🚀")
	})
	if a.Deps.MetricsHTTP != nil {
		fiberApp.Get("/metrics", adaptor.HTTPHandler(a.Deps.MetricsHTTP))
	}
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	// Webhooks sit outside the rate limit and the JWT guard.
	if a.Deps.Webhook != nil {
		webhook.StripeRoutes(fiberApp, a.Deps.Webhook, a.PayoutService)
	}

	api := fiberApp.Group("/api/v1")
	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:          cfg.RateLimit.MaxRequests,
			Expiration:   cfg.RateLimit.Window,
			KeyGenerator: clientIP,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ErrorResponseJSON(c, fiber.StatusTooManyRequests,
					common.CodeTooManyReqs, "Rate limit exceeded")
			},
		}))
	}

	var guard fiber.Handler
	if cfg.Auth != nil && cfg.Auth.Jwt != nil && cfg.Auth.Jwt.Key != "" {
		var err error
		if guard, err = middleware.JwtProtected(cfg.Auth.Jwt); err != nil {
			return nil, err
		}
	} else if cfg.Env == "production" {
		return nil, errors.New("AUTH_JWT_KEY is required in production")
	}

	payoutweb.Routes(api, a.PayoutService, guard)
	validateweb.Routes(api)
	return fiberApp, nil
}

// clientIP keys the limiter by the first X-Forwarded-For hop, then
// X-Real-IP, then the socket address.
func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
