package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-mailroom/pkg/util"
)

// RequireAdmin validates the bearer token on admin routes and checks the
// role claim.
func RequireAdmin(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		if claims.Role != "admin" {
			return apperrors.NewUnauthorized("admin role required")
		}
		return c.Next()
	}
}

// RequireWebhookSecret guards the inbound webhook with a shared secret. An
// empty configured secret disables the check for local development.
func RequireWebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		provided := c.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return apperrors.NewUnauthorized("invalid webhook secret")
		}
		return c.Next()
	}
}
