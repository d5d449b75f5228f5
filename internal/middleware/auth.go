package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
)

const principalKey = "principal"

// Authenticate requires a valid bearer token and stores its principal in
// the request locals.
func Authenticate(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
		}
		principal, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RequireRole rejects principals of any other role. It must run after
// Authenticate.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}
		if principal.Role != role {
			return fiber.NewError(fiber.StatusForbidden, "Access restricted to "+string(role)+"s")
		}
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	principal, ok := c.Locals(principalKey).(models.Principal)
	return principal, ok
}
