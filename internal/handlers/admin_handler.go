package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/kku-mis/course-registration/internal/session"
)

type AdminHandler struct {
	accounts *services.AccountService
	stats    *services.StatsService
}

func NewAdminHandler(accounts *services.AccountService, stats *services.StatsService) *AdminHandler {
	return &AdminHandler{accounts: accounts, stats: stats}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Admin(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// Users lists accounts newest first; ?role= narrows the result.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.accounts.ListUsers(c.UserContext(), c.Query("role"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AdminHandler) Students(c *fiber.Ctx) error {
	students, err := h.accounts.ListStudents(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"students": students})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if admin, err := session.User(c); err == nil && admin.ID == id {
		return badRequest(c, "Admins cannot delete their own account")
	}

	if err := h.accounts.DeleteUser(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

func (h *AdminHandler) SweepOrphans(c *fiber.Ctx) error {
	results, err := h.accounts.SweepOrphans(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"results": results, "removed": len(results)})
}
