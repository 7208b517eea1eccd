package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/kku-mis/course-registration/internal/session"
)

// selfOrStaff lets a student act on their own record and reviewers act on
// anyone's.
func selfOrStaff(c *fiber.Ctx, studentID uuid.UUID) (*models.User, error) {
	user, err := session.User(c)
	if err != nil {
		return nil, services.ErrUnauthorized
	}
	if user.ID != studentID && !user.Role.IsStaff() {
		return nil, services.ErrForbidden
	}
	return user, nil
}
