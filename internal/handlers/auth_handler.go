package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/kku-mis/course-registration/internal/session"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.accounts.CreateAccount(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SignupResponse{User: res.User, Warnings: res.Warnings})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.accounts.SignIn(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.accounts.Refresh(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := session.Token(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	if err := h.accounts.SignOut(c.UserContext(), token.Raw); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) CleanupOrphan(c *fiber.Ctx) error {
	var req dto.CleanupOrphanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cleaned, err := h.accounts.CleanupOrphan(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CleanupOrphanResponse{Email: req.Email, Cleaned: cleaned})
}
