// middleware/auth.go
package middleware

import (
	"context"
	"log"
	"strings"

	"firefight-platform/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID    = "user_id"
	localUserRoles = "user_roles"

	RoleAdmin = "admin"
)

// UserEnsurer creates the local user row on first sight.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, userID, username string) (*models.User, error)
}

// UserContextMiddleware extracts user identity and roles set by Gateway and
// makes sure a local user row exists.
func UserContextMiddleware(users UserEnsurer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
				"code":  "UNAUTHORIZED",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}

		if _, err := users.EnsureUser(c.UserContext(), userID, c.Get("X-User-Name")); err != nil {
			log.Printf("❌ [USER_CTX] failed to ensure user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load user",
				"code":  "INTERNAL",
			})
		}

		// Attach to ctx for handlers
		c.Locals(localUserID, userID)
		c.Locals(localUserRoles, roles)

		return c.Next()
	}
}

// RequireRole rejects callers without role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !HasRole(c, role) {
			log.Printf("🚫 [USER_CTX] %s lacks role %q for %s", UserID(c), role, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient permissions",
				"code":  "FORBIDDEN",
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func Roles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(localUserRoles).([]string)
	return roles
}

func HasRole(c *fiber.Ctx, role string) bool {
	for _, r := range Roles(c) {
		if r == role {
			return true
		}
	}
	return false
}

func IsAdmin(c *fiber.Ctx) bool {
	return HasRole(c, RoleAdmin)
}
