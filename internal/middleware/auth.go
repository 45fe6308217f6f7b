package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/utils"
)

const (
	adminContextKey = "currentAdmin"
	RoleAdmin       = "admin"
)

// AdminAuth validates the bearer token and stores the admin name in context.
func AdminAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Unauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Unauthorized("invalid authorization header")
		}

		subject, role, err := utils.ParseToken(secret, parts[1])
		if err != nil || role != RoleAdmin {
			return apperr.Unauthorized("invalid token")
		}

		c.Locals(adminContextKey, subject)
		return c.Next()
	}
}

// CurrentAdmin returns the authenticated admin name, or "" outside AdminAuth.
func CurrentAdmin(c *fiber.Ctx) string {
	if name, ok := c.Locals(adminContextKey).(string); ok {
		return name
	}
	return ""
}
