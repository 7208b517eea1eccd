package middleware

import (
	"github.com/kku-mis/course-registration/internal/locale"
	"github.com/kku-mis/course-registration/internal/session"
	"github.com/gofiber/fiber/v2"
)

// Language negotiates the caller's language from ?lang= or Accept-Language.
func Language(fallback string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Query("lang")
		if header == "" {
			header = c.Get(fiber.HeaderAcceptLanguage)
		}
		session.SetLanguage(c, locale.Negotiate(header, fallback))
		return c.Next()
	}
}
