package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/skolahub/skola-api/internal/utils"
)

// RequireRole guards a route so only the named roles may pass. Matching is
// case-insensitive; requests without a recognised role are refused outright.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if canonical := canonicalRole(role); canonical != "" {
			allowed[canonical] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[canonicalRole(AuthenticatedUserRole(c))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func canonicalRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
