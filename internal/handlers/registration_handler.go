package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/kku-mis/course-registration/internal/session"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
	approvals     *services.ApprovalService
	stats         *services.StatsService
}

func NewRegistrationHandler(registrations *services.RegistrationService, approvals *services.ApprovalService, stats *services.StatsService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, approvals: approvals, stats: stats}
}

func (h *RegistrationHandler) Submit(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	var req dto.SubmitRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	request, err := h.registrations.Submit(c.UserContext(), user.ID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

func (h *RegistrationHandler) ListMine(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	requests, err := h.registrations.ListForStudent(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// List serves reviewers; ?status= narrows the result.
func (h *RegistrationHandler) List(c *fiber.Ctx) error {
	requests, err := h.registrations.ListAll(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *RegistrationHandler) Resolve(c *fiber.Ctx) error {
	reviewer, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req dto.ResolveRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	request, err := h.approvals.Resolve(c.UserContext(), services.ResolveInput{
		RequestID:  id,
		Decision:   req.Status,
		Notes:      req.Notes,
		ReviewerID: &reviewer.ID,
		Lang:       session.Language(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(request)
}

func (h *RegistrationHandler) SupervisorStats(c *fiber.Ctx) error {
	stats, err := h.stats.Supervisor(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

func (h *RegistrationHandler) SupervisorNotifications(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	inbox, err := h.stats.SupervisorNotifications(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inbox)
}
