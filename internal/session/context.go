// Package session carries the authenticated caller through a request.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kku-mis/course-registration/internal/models"
)

const (
	tokenKey = "user"
	userKey  = "current_user"
	langKey  = "lang"
)

var ErrNoSession = errors.New("no authenticated user in context")

// Token returns the verified JWT placed in locals by the JWT middleware.
func Token(c *fiber.Ctx) (*jwt.Token, error) {
	token, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	return token, nil
}

func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userKey, user)
}

// User returns the application user resolved for this request.
func User(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(userKey).(*models.User)
	if !ok || user == nil {
		return nil, ErrNoSession
	}
	return user, nil
}

func SetLanguage(c *fiber.Ctx, lang string) {
	c.Locals(langKey, lang)
}

func Language(c *fiber.Ctx) string {
	lang, _ := c.Locals(langKey).(string)
	return lang
}
