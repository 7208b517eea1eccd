package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// UserResolver maps a principal to its application user.
type UserResolver interface {
	UserByPrincipal(ctx context.Context, principalID uuid.UUID) (*models.User, error)
}

// RequireUser runs after JWTProtected. It rejects revoked tokens and tokens
// whose principal no longer has a user row, then stores the user in the
// request session.
func RequireUser(provider identity.Provider, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := session.Token(c)
		if err != nil {
			return unauthorized(c)
		}

		principal, err := provider.VerifyCredential(c.UserContext(), token.Raw)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidCredential) {
				slog.Error("credential verification failed", "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
					Error: true, Message: "Identity provider unavailable",
				})
			}
			return unauthorized(c)
		}

		user, err := users.UserByPrincipal(c.UserContext(), principal.ID)
		if err != nil {
			slog.Warn("authenticated principal has no user", "principal_id", principal.ID, "error", err)
			return unauthorized(c)
		}

		session.SetUser(c, user)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
