package middleware

import (
	"strings"

	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/session"
	"github.com/gofiber/fiber/v2"
)

// RequireRole admits users holding one of roles. Emails listed in
// ADMIN_EMAILS count as admins whatever their stored role.
func RequireRole(cfg *config.Config, roles ...models.Role) fiber.Handler {
	adminEmails := parseCSV(strings.ToLower(cfg.AdminEmails))

	return func(c *fiber.Ctx) error {
		user, err := session.User(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
			if role == models.RoleAdmin && contains(adminEmails, user.Email) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient role for this action",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
