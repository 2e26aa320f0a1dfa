// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoVerificationKey = errors.New("jwt verification key is not configured")
	errWrongIssuer       = errors.New("token issuer mismatch")
)

// JwtProtected verifies bearer tokens with the configured key. RS*/ES*
// algorithms expect a PEM public key (as issued by Clerk); HS* a shared
// secret. When an issuer is set, tokens from other issuers are rejected.
func JwtProtected(cfg *config.Jwt) (fiber.Handler, error) {
	if cfg == nil || cfg.Key == "" {
		return nil, ErrNoVerificationKey
	}
	key, err := verificationKey(cfg)
	if err != nil {
		return nil, err
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   key,
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			if cfg.Issuer == "" {
				return c.Next()
			}
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return jwtError(c, errWrongIssuer)
			}
			iss, _ := token.Claims.GetIssuer()
			if iss != cfg.Issuer {
				return jwtError(c, errWrongIssuer)
			}
			return c.Next()
		},
	}), nil
}

func verificationKey(cfg *config.Jwt) (jwtware.SigningKey, error) {
	alg := strings.ToUpper(cfg.Algorithm)
	if alg == "" {
		alg = "RS256"
	}
	key := strings.ReplaceAll(cfg.Key, `\n`, "\n")
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(key))
		if err != nil {
			return jwtware.SigningKey{}, fmt.Errorf("parse RSA public key: %w", err)
		}
		return jwtware.SigningKey{JWTAlg: alg, Key: pub}, nil
	case strings.HasPrefix(alg, "ES"):
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(key))
		if err != nil {
			return jwtware.SigningKey{}, fmt.Errorf("parse EC public key: %w", err)
		}
		return jwtware.SigningKey{JWTAlg: alg, Key: pub}, nil
	case strings.HasPrefix(alg, "HS"):
		return jwtware.SigningKey{JWTAlg: alg, Key: []byte(key)}, nil
	}
	return jwtware.SigningKey{}, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return common.ErrorResponseJSON(c, fiber.StatusBadRequest, common.CodeBadRequest, "Missing or malformed JWT")
	}
	return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, common.CodeUnauthorized, "Invalid or expired JWT")
}
