package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/utils"
)

// RequireRole admits only requests whose token carries one of the listed
// roles. Unknown role names are ignored, and admins get no implicit pass:
// routes meant for them must list models.RoleAdmin explicitly.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if models.ValidRole(role) {
			allowed[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		// The JWT middleware stores the role claim as a lowercased string.
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
